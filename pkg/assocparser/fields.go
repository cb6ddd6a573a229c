package assocparser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/curie"
	"github.com/coolbeans/assockit/pkg/relation"
)

// LeafErrorSink is told about every element dropped while decoding a column.
type LeafErrorSink func(leaf string, err error)

// DecodeField decodes a pipe/comma column: each '|' segment becomes one
// conjunctive set and each ',' element within it one leaf. Order is kept.
// Elements that fail parseLeaf are passed to sink and dropped; a segment left
// with no elements produces no set. Empty input yields an empty result.
func DecodeField[T any](raw string, parseLeaf func(string) (T, error), sink LeafErrorSink) []association.ConjunctiveSet[T] {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var sets []association.ConjunctiveSet[T]
	for _, segment := range strings.Split(raw, "|") {
		var set association.ConjunctiveSet[T]
		for _, leaf := range strings.Split(segment, ",") {
			if value, ok := decodeLeaf(leaf, parseLeaf, sink); ok {
				set = append(set, value)
			}
		}
		if len(set) > 0 {
			sets = append(sets, set)
		}
	}
	return sets
}

// DecodeList decodes a '|' separated column into a flat list.
func DecodeList[T any](raw string, parseLeaf func(string) (T, error), sink LeafErrorSink) []T {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var values []T
	for _, leaf := range strings.Split(raw, "|") {
		if value, ok := decodeLeaf(leaf, parseLeaf, sink); ok {
			values = append(values, value)
		}
	}
	return values
}

func decodeLeaf[T any](leaf string, parseLeaf func(string) (T, error), sink LeafErrorSink) (T, bool) {
	var zero T
	trimmed := strings.TrimSpace(leaf)
	if trimmed == "" {
		if sink != nil {
			sink(leaf, ErrEmptyElement)
		}
		return zero, false
	}
	value, err := parseLeaf(trimmed)
	if err != nil {
		if sink != nil {
			sink(trimmed, err)
		}
		return zero, false
	}
	return value, true
}

// splitTokens splits a '|' column into trimmed, non-empty strings.
func splitTokens(raw string) []string {
	var tokens []string
	for _, token := range strings.Split(raw, "|") {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}

var extensionUnitPattern = regexp.MustCompile(`^([^\s()]+)\(([^\s()]+)\)$`)

// ExtensionUnitParser returns a leaf parser for relation(term) clauses. The
// relation may be a curie or a label known to relations.
func ExtensionUnitParser(relations *relation.Table) func(string) (association.ExtensionUnit, error) {
	return func(leaf string) (association.ExtensionUnit, error) {
		match := extensionUnitPattern.FindStringSubmatch(leaf)
		if match == nil {
			return association.ExtensionUnit{}, fmt.Errorf("%w: %q is not relation(term)", ErrMalformedExtension, leaf)
		}
		relationID, ok := relations.Resolve(match[1])
		if !ok {
			return association.ExtensionUnit{}, fmt.Errorf("%w: unknown relation %q", ErrMalformedExtension, match[1])
		}
		term, err := curie.Parse(match[2])
		if err != nil {
			return association.ExtensionUnit{}, fmt.Errorf("%w: %w", ErrMalformedExtension, err)
		}
		return association.ExtensionUnit{Relation: relationID, Term: term}, nil
	}
}

// ParseProperty parses one key=value annotation property.
func ParseProperty(leaf string) (association.Property, error) {
	key, value, found := strings.Cut(leaf, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return association.Property{}, fmt.Errorf("%w: %q is not key=value", ErrMalformedProperty, leaf)
	}
	return association.Property{Key: key, Value: strings.TrimSpace(value)}, nil
}
