package assocparser

import (
	"fmt"
	"strings"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/curie"
	"github.com/coolbeans/assockit/pkg/relation"
	"github.com/coolbeans/assockit/pkg/report"
)

// GAF column offsets. 1.0 stops after gafAssignedBy.
const (
	gafDB = iota
	gafObjectID
	gafSymbol
	gafQualifier
	gafTermID
	gafReference
	gafEvidenceCode
	gafWithFrom
	gafAspect
	gafName
	gafSynonyms
	gafType
	gafTaxon
	gafDate
	gafAssignedBy
	gafExtension
	gafGeneProductForm
)

var gafLayouts = map[string]columnLayout{
	"1.0": {columns: 15, minColumns: 15},
	"2.0": {columns: 17, minColumns: 15},
	"2.1": {columns: 17, minColumns: 15},
	"2.2": {columns: 17, minColumns: 15},
}

var gafMandatory = []mandatoryColumn{
	{index: gafDB, name: "DB"},
	{index: gafObjectID, name: "DB Object ID"},
	{index: gafTermID, name: "GO ID"},
	{index: gafEvidenceCode, name: "Evidence Code"},
	{index: gafAspect, name: "Aspect"},
}

// Before 2.2 the qualifier column only refines the aspect-implied relation.
var legacyGAFQualifiers = map[string]bool{
	"contributes_to":   true,
	"colocalizes_with": true,
}

// GAFParser reads GAF 1.0 and 2.x lines.
type GAFParser struct {
	baseParser
}

// NewGAFParser creates a parser for the given GAF version.
func NewGAFParser(version string, options Options) (*GAFParser, error) {
	layout, ok := gafLayouts[version]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported gaf version %q", ErrSchemaMismatch, version)
	}
	declaration := Declaration{Format: FormatGAF, Version: version}
	return &GAFParser{baseParser: newBaseParser(declaration, layout, gafMandatory, options)}, nil
}

// ParseLine parses one raw GAF line.
func (p *GAFParser) ParseLine(line string) (association.ParseResult, error) {
	return p.parseLine(line, p.ToAssociation)
}

// ToAssociation converts a GAF field vector.
func (p *GAFParser) ToAssociation(fields []string, version string) (association.ParseResult, error) {
	if _, err := checkSchema(p.declaration, gafLayouts, fields, version); err != nil {
		return association.ParseResult{}, err
	}

	state := p.newLineState(fields)
	line := state.line

	subjectID := state.curie("DB:DB Object ID", strings.TrimSpace(fields[gafDB])+":"+strings.TrimSpace(fields[gafObjectID]))
	object := state.curie("GO ID", fields[gafTermID])

	aspect := strings.ToUpper(strings.TrimSpace(fields[gafAspect]))
	if aspect != "P" && aspect != "F" && aspect != "C" {
		state.fail(report.RuleInvalidAspect, fields[gafAspect], fmt.Sprintf("aspect %q is not one of P, F, C", fields[gafAspect]))
	}

	negated, relationID, qualifiers := p.gafQualifier(state, fields, version, aspect)

	references := state.references(fields[gafReference])
	evidenceCode := strings.ToUpper(strings.TrimSpace(fields[gafEvidenceCode]))
	referenceIDs := make([]string, len(references))
	for i, reference := range references {
		referenceIDs[i] = reference.String()
	}
	evidenceType, known := p.evidence.CodeToECO(evidenceCode, referenceIDs...)
	if p.excluded(evidenceCode, evidenceType) {
		return association.Skip(line), nil
	}
	if !known {
		state.fail(report.RuleUnknownEvidence, evidenceCode, fmt.Sprintf("GO evidence code %q has no ECO mapping", evidenceCode))
	}

	withFrom := state.withFrom(fields[gafWithFrom])

	var taxon, interactingTaxon curie.Curie
	taxa := splitTokens(fields[gafTaxon])
	switch {
	case len(taxa) == 0:
		state.fail(report.RuleMissingField, "", "Taxon is empty")
	case len(taxa) > 2:
		state.fail(report.RuleInvalidIdentifier, fields[gafTaxon], "taxon column holds more than two taxa")
	default:
		taxon = state.optionalTaxon("Taxon", taxa[0])
		if len(taxa) == 2 {
			interactingTaxon = state.optionalTaxon("Interacting taxon", taxa[1])
		}
	}

	date := state.date(fields[gafDate], "20060102")

	var extensions []association.ConjunctiveSet[association.ExtensionUnit]
	var properties []association.Property
	if len(fields) > gafExtension {
		extensions = state.extensions(fields[gafExtension])
		if form := strings.TrimSpace(fields[gafGeneProductForm]); form != "" {
			properties = append(properties, association.Property{Key: "gene_product_form_id", Value: form})
		}
	}

	if state.failed {
		return association.Skip(line), nil
	}
	if !p.taxonAllowed(taxon) {
		state.warn(report.RuleTaxonNotAllowed, taxon.String(), fmt.Sprintf("taxon %s is not in the configured taxa", taxon))
		return association.Skip(line), nil
	}

	subject := &association.Subject{
		ID:       subjectID,
		Label:    strings.TrimSpace(fields[gafSymbol]),
		FullName: strings.TrimSpace(fields[gafName]),
		Synonyms: splitTokens(fields[gafSynonyms]),
		Type:     strings.TrimSpace(fields[gafType]),
		Taxon:    taxon,
	}

	return association.Single(line, &association.GoAssociation{
		Subject:          subjectID,
		SubjectEntity:    subject,
		Relation:         relationID,
		Object:           object,
		Aspect:           aspect,
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
		ProvidedBy:       strings.TrimSpace(fields[gafAssignedBy]),
		Properties:       properties,
		SourceLine:       line,
		Version:          version,
	}), nil
}

// gafQualifier resolves negation, relation and qualifier labels. GAF 2.2
// requires exactly one relation in the qualifier column; older versions infer
// the relation from the aspect unless a legacy qualifier names one.
func (p *GAFParser) gafQualifier(state *lineState, fields []string, version, aspect string) (bool, curie.Curie, []string) {
	negated, tokens := splitNegation(splitTokens(fields[gafQualifier]))
	labels := make([]string, len(tokens))
	for i, token := range tokens {
		labels[i] = strings.ToLower(token)
	}

	if version == "2.2" {
		if len(labels) != 1 {
			state.fail(report.RuleInvalidQualifier, fields[gafQualifier],
				fmt.Sprintf("gaf 2.2 qualifier must hold exactly one relation, got %q", fields[gafQualifier]))
			return negated, curie.Curie{}, labels
		}
		relationID, ok := p.relations.Lookup(labels[0])
		if !ok {
			state.fail(report.RuleUnknownRelation, labels[0], fmt.Sprintf("unknown relation %q", labels[0]))
		}
		return negated, relationID, labels
	}

	for _, label := range labels {
		if !legacyGAFQualifiers[label] {
			state.fail(report.RuleInvalidQualifier, label,
				fmt.Sprintf("qualifier %q is not allowed before gaf 2.2", label))
			return negated, curie.Curie{}, labels
		}
	}
	if len(labels) > 0 {
		relationID, _ := p.relations.Lookup(labels[0])
		return negated, relationID, labels
	}

	relationID := aspectRelation(aspect, strings.TrimSpace(fields[gafType]))
	if relationID.IsZero() {
		return negated, relationID, nil
	}
	label, _ := p.relations.Label(relationID)
	return negated, relationID, []string{label}
}

// aspectRelation is the relation implied by a GAF aspect.
func aspectRelation(aspect, objectType string) curie.Curie {
	switch aspect {
	case "F":
		return relation.Enables
	case "P":
		return relation.InvolvedIn
	case "C":
		if strings.EqualFold(objectType, "protein_complex") || strings.EqualFold(objectType, "protein-containing complex") {
			return relation.PartOf
		}
		return relation.LocatedIn
	default:
		return curie.Curie{}
	}
}
