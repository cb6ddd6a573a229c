package assocparser

import (
	"fmt"
	"strings"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/curie"
	"github.com/coolbeans/assockit/pkg/report"
)

// GPAD column offsets. In 1.x the subject spans gpadDB and gpadObjectID and
// gpadQualifier holds "NOT|relation_label"; in 2.0 the first column is the
// full subject curie, the second the negation flag and the third a relation
// curie.
const (
	gpadDB = iota
	gpadObjectID
	gpadQualifier
	gpadTermID
	gpadReference
	gpadEvidence
	gpadWithFrom
	gpadInteractingTaxon
	gpadDate
	gpadAssignedBy
	gpadExtension
	gpadProperties
)

// GPAD 2.0 names for the columns that changed meaning.
const (
	gpad2Subject  = gpadDB
	gpad2Negation = gpadObjectID
	gpad2Relation = gpadQualifier
)

var gpadLayouts = map[string]columnLayout{
	"1.1": {columns: 12, minColumns: 10},
	"1.2": {columns: 12, minColumns: 10},
	"2.0": {columns: 12, minColumns: 10},
}

var gpad1Mandatory = []mandatoryColumn{
	{index: gpadDB, name: "DB"},
	{index: gpadObjectID, name: "DB Object ID"},
	{index: gpadQualifier, name: "Qualifier"},
	{index: gpadTermID, name: "GO ID"},
	{index: gpadEvidence, name: "Evidence Code"},
}

var gpad2Mandatory = []mandatoryColumn{
	{index: gpad2Subject, name: "DB:DB Object ID"},
	{index: gpad2Relation, name: "Relation"},
	{index: gpadTermID, name: "Ontology Class ID"},
	{index: gpadEvidence, name: "Evidence type"},
}

// GPADParser reads GPAD 1.1, 1.2 and 2.0 lines.
type GPADParser struct {
	baseParser
}

// NewGPADParser creates a parser for the given GPAD version.
func NewGPADParser(version string, options Options) (*GPADParser, error) {
	layout, ok := gpadLayouts[version]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported gpad version %q", ErrSchemaMismatch, version)
	}
	mandatory := gpad1Mandatory
	if version == "2.0" {
		mandatory = gpad2Mandatory
	}
	declaration := Declaration{Format: FormatGPAD, Version: version}
	return &GPADParser{baseParser: newBaseParser(declaration, layout, mandatory, options)}, nil
}

// ParseLine parses one raw GPAD line.
func (p *GPADParser) ParseLine(line string) (association.ParseResult, error) {
	return p.parseLine(line, p.ToAssociation)
}

// ToAssociation converts a GPAD field vector.
func (p *GPADParser) ToAssociation(fields []string, version string) (association.ParseResult, error) {
	if _, err := checkSchema(p.declaration, gpadLayouts, fields, version); err != nil {
		return association.ParseResult{}, err
	}

	state := p.newLineState(fields)
	line := state.line

	var subjectID, relationID curie.Curie
	var negated bool
	var qualifiers []string
	var date string
	if version == "2.0" {
		subjectID = state.curie("DB:DB Object ID", fields[gpad2Subject])
		negated, relationID, qualifiers = p.gpad2Relation(state, fields)
		date = state.date(fields[gpadDate], "2006-01-02", "2006-01-02T15:04:05", "2006-01-02T15:04:05Z07:00")
	} else {
		subjectID = state.curie("DB:DB Object ID", strings.TrimSpace(fields[gpadDB])+":"+strings.TrimSpace(fields[gpadObjectID]))
		negated, relationID, qualifiers = p.gpad1Relation(state, fields)
		date = state.date(fields[gpadDate], "20060102")
	}

	object := state.curie("GO ID", fields[gpadTermID])
	evidenceType := state.curie("Evidence", fields[gpadEvidence])
	evidenceCode, _ := p.evidence.ECOToCode(evidenceType)
	if p.excluded(evidenceCode, evidenceType) {
		return association.Skip(line), nil
	}

	references := state.references(fields[gpadReference])
	withFrom := state.withFrom(fields[gpadWithFrom])
	interactingTaxon := state.optionalTaxon("Interacting taxon", fields[gpadInteractingTaxon])
	extensions := state.extensions(fields[gpadExtension])
	properties := state.properties(fields[gpadProperties])

	if state.failed {
		return association.Skip(line), nil
	}

	subject, known := p.registry.Get(subjectID)
	if !known && p.registry.Len() > 0 {
		state.warn(report.RuleUnknownSubject, subjectID.String(), fmt.Sprintf("subject %s is not in the entity registry", subjectID))
	}
	if known && !p.taxonAllowed(subject.Taxon) {
		state.warn(report.RuleTaxonNotAllowed, subject.Taxon.String(), fmt.Sprintf("taxon %s is not in the configured taxa", subject.Taxon))
		return association.Skip(line), nil
	}

	return association.Single(line, &association.GoAssociation{
		Subject:          subjectID,
		SubjectEntity:    subject,
		Relation:         relationID,
		Object:           object,
		Negated:          negated,
		Qualifiers:       qualifiers,
		InteractingTaxon: interactingTaxon,
		Evidence: association.Evidence{
			Type:                   evidenceType,
			WithSupportFrom:        withFrom,
			HasSupportingReference: references,
		},
		ObjectExtensions: extensions,
		Date:             date,
		ProvidedBy:       strings.TrimSpace(fields[gpadAssignedBy]),
		Properties:       properties,
		SourceLine:       line,
		Version:          version,
	}), nil
}

// gpad1Relation reads the combined "NOT|relation" qualifier column.
func (p *GPADParser) gpad1Relation(state *lineState, fields []string) (bool, curie.Curie, []string) {
	negated, tokens := splitNegation(splitTokens(fields[gpadQualifier]))
	if len(tokens) != 1 {
		state.fail(report.RuleInvalidQualifier, fields[gpadQualifier],
			fmt.Sprintf("qualifier must hold exactly one relation, got %q", fields[gpadQualifier]))
		return negated, curie.Curie{}, nil
	}
	label := strings.ToLower(tokens[0])
	relationID, ok := p.relations.Lookup(label)
	if !ok {
		state.fail(report.RuleUnknownRelation, label, fmt.Sprintf("unknown relation %q", label))
	}
	return negated, relationID, []string{label}
}

// gpad2Relation reads the separate negation and relation curie columns.
func (p *GPADParser) gpad2Relation(state *lineState, fields []string) (bool, curie.Curie, []string) {
	negation := strings.TrimSpace(fields[gpad2Negation])
	if negation != "" && !strings.EqualFold(negation, "NOT") {
		state.fail(report.RuleInvalidQualifier, negation, fmt.Sprintf("negation column must be NOT or empty, got %q", negation))
	}
	relationID := state.curie("Relation", fields[gpad2Relation])
	if relationID.IsZero() {
		return negation != "", relationID, nil
	}
	label, ok := p.relations.Label(relationID)
	if !ok {
		label = strings.ToLower(relationID.String())
	}
	return negation != "", relationID, []string{label}
}
