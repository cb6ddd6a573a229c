// Package association defines the typed records produced by the annotation
// parsers: subjects, evidence, extensions and the GO association itself.
package association

import (
	"fmt"
	"strings"

	"github.com/coolbeans/assockit/pkg/curie"
)

// ConjunctiveSet is an ordered group of elements that must all hold together
// (AND semantics). Multi-valued columns are a slice of sets joined by OR.
type ConjunctiveSet[T any] []T

// String renders the set as comma-joined elements.
func (set ConjunctiveSet[T]) String() string {
	parts := make([]string, len(set))
	for i, element := range set {
		parts[i] = fmt.Sprint(element)
	}
	return strings.Join(parts, ",")
}

// FormatField renders a disjunction of conjunctive sets back to its column form,
// e.g. "A,B|C".
func FormatField[T any](sets []ConjunctiveSet[T]) string {
	parts := make([]string, len(sets))
	for i, set := range sets {
		parts[i] = set.String()
	}
	return strings.Join(parts, "|")
}

// ExtensionUnit is one annotation-extension clause: relation(term).
type ExtensionUnit struct {
	Relation curie.Curie `json:"relation"`
	Term     curie.Curie `json:"term"`
}

// String renders the unit as relation(term).
func (unit ExtensionUnit) String() string {
	return fmt.Sprintf("%s(%s)", unit.Relation, unit.Term)
}

// Evidence describes the support for an association.
type Evidence struct {
	// Type is the ECO class of the evidence.
	Type curie.Curie `json:"type"`

	WithSupportFrom        []ConjunctiveSet[curie.Curie] `json:"with_support_from,omitempty"`
	HasSupportingReference []curie.Curie                 `json:"has_supporting_reference,omitempty"`
}

// Subject is a gene product or other annotated entity. Subjects are owned by
// the entity registry; associations only point at them.
type Subject struct {
	ID       curie.Curie `json:"id"`
	Label    string      `json:"label"`
	FullName string      `json:"full_name,omitempty"`
	Synonyms []string    `json:"synonyms,omitempty"`
	Type     string      `json:"type,omitempty"`
	Taxon    curie.Curie `json:"taxon,omitzero"`
}

// Property is one key=value pair from an annotation properties column.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GoAssociation links a subject to an ontology class with supporting evidence.
// It is built once from a single input line and not modified afterwards.
type GoAssociation struct {
	Subject       curie.Curie `json:"subject"`
	SubjectEntity *Subject    `json:"subject_entity,omitempty"`

	// Relation is the resolved relation curie; zero when it could not be resolved.
	Relation curie.Curie `json:"relation,omitzero"`
	Object   curie.Curie `json:"object"`

	// Aspect is the GAF aspect column (P, F or C); empty for GPAD.
	Aspect string `json:"aspect,omitempty"`

	Negated    bool     `json:"negated"`
	Qualifiers []string `json:"qualifiers,omitempty"`

	InteractingTaxon curie.Curie `json:"interacting_taxon,omitzero"`
	Evidence         Evidence    `json:"evidence"`

	ObjectExtensions []ConjunctiveSet[ExtensionUnit] `json:"object_extensions,omitempty"`

	Date       string     `json:"date,omitempty"`
	ProvidedBy string     `json:"provided_by,omitempty"`
	Properties []Property `json:"properties,omitempty"`

	SourceLine string `json:"source_line"`
	Version    string `json:"version"`
}

// ParseResult is the outcome of parsing one line. Zero associations with
// Skipped == 1 marks a filtered or invalid line; it is not an error by itself.
type ParseResult struct {
	SourceLine   string
	Associations []*GoAssociation
	Skipped      int
}

// Skip returns a result for a line that produced no association.
func Skip(line string) ParseResult {
	return ParseResult{SourceLine: line, Skipped: 1}
}

// Single returns a result carrying one association.
func Single(line string, assoc *GoAssociation) ParseResult {
	return ParseResult{SourceLine: line, Associations: []*GoAssociation{assoc}}
}
