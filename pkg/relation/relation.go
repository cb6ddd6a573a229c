// Package relation maps the relation labels used in GAF qualifiers, GPAD 1.x
// qualifiers and annotation extensions to RO/BFO identifiers.
package relation

import (
	"fmt"
	"strings"

	"github.com/coolbeans/assockit/pkg/curie"
)

// Common relations referenced directly by the parsers.
var (
	Enables    = curie.MustParse("RO:0002327")
	InvolvedIn = curie.MustParse("RO:0002331")
	LocatedIn  = curie.MustParse("RO:0001025")
	PartOf     = curie.MustParse("BFO:0000050")
)

var builtinLabels = map[string]string{
	"enables":                                    "RO:0002327",
	"contributes_to":                             "RO:0002326",
	"involved_in":                                "RO:0002331",
	"acts_upstream_of":                           "RO:0002263",
	"acts_upstream_of_or_within":                 "RO:0002264",
	"acts_upstream_of_positive_effect":           "RO:0004034",
	"acts_upstream_of_negative_effect":           "RO:0004035",
	"acts_upstream_of_or_within_positive_effect": "RO:0004032",
	"acts_upstream_of_or_within_negative_effect": "RO:0004033",
	"located_in":                                 "RO:0001025",
	"is_active_in":                               "RO:0002432",
	"colocalizes_with":                           "RO:0002325",
	"part_of":                                    "BFO:0000050",
	"has_part":                                   "BFO:0000051",
	"occurs_in":                                  "BFO:0000066",
	"has_input":                                  "RO:0002233",
	"has_output":                                 "RO:0002234",
	"happens_during":                             "RO:0002092",
	"regulates":                                  "RO:0002211",
	"negatively_regulates":                       "RO:0002212",
	"positively_regulates":                       "RO:0002213",
}

// Table is a bidirectional label/curie lookup. It is read-only after construction.
type Table struct {
	byLabel map[string]curie.Curie
	byCurie map[curie.Curie]string
}

// Default returns the built-in table.
func Default() *Table {
	table, err := WithOverrides(nil)
	if err != nil {
		panic(err)
	}
	return table
}

// WithOverrides returns the built-in table extended (and overridden) by the
// given label to curie entries.
func WithOverrides(overrides map[string]string) (*Table, error) {
	table := &Table{
		byLabel: make(map[string]curie.Curie, len(builtinLabels)+len(overrides)),
		byCurie: make(map[curie.Curie]string, len(builtinLabels)+len(overrides)),
	}
	for label, id := range builtinLabels {
		table.add(label, curie.MustParse(id))
	}
	for label, id := range overrides {
		parsed, err := curie.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("relation %q: %w", label, err)
		}
		table.add(label, parsed)
	}
	return table, nil
}

func (t *Table) add(label string, id curie.Curie) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	t.byLabel[normalized] = id
	t.byCurie[id] = normalized
}

// Lookup resolves a relation label. Labels are matched case-insensitively.
func (t *Table) Lookup(label string) (curie.Curie, bool) {
	id, ok := t.byLabel[strings.ToLower(strings.TrimSpace(label))]
	return id, ok
}

// Label returns the label registered for a relation curie.
func (t *Table) Label(id curie.Curie) (string, bool) {
	label, ok := t.byCurie[id]
	return label, ok
}

// Resolve accepts either a curie or a label.
func (t *Table) Resolve(value string) (curie.Curie, bool) {
	if id, ok := t.Lookup(value); ok {
		return id, true
	}
	if id, err := curie.Parse(value); err == nil {
		return id, true
	}
	return curie.Curie{}, false
}
