package assocparser

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/curie"
	"github.com/coolbeans/assockit/pkg/entity"
	"github.com/coolbeans/assockit/pkg/relation"
	"github.com/coolbeans/assockit/pkg/report"
)

func testOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func gpad12Fields() []string {
	return []string{"MGI", "MGI:1918911", "enables", "GO:0003674", "MGI:MGI:2156816|GO_REF:0000015", "ECO:0000307", "", "", "20100209", "MGI", "", ""}
}

func gpad20Fields() []string {
	return []string{
		"MGI:MGI:1918911",
		"",
		"RO:0002327",
		"GO:0003674",
		"MGI:MGI:2156816|GO_REF:0000015",
		"ECO:0000307",
		"",
		"",
		"2020-09-17",
		"MGI",
		"",
		"creation-date=2020-09-17|modification-date=2020-09-17|contributor-id=http://orcid.org/0000-0003-2689-5511",
	}
}

func newGPAD(t *testing.T, version string, options Options) *GPADParser {
	t.Helper()
	parser, err := NewGPADParser(version, options)
	require.NoError(t, err)
	return parser
}

func TestGPAD12ToAssociation(t *testing.T) {
	parser := newGPAD(t, "1.2", testOptions())

	result, err := parser.ToAssociation(gpad12Fields(), "1.2")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Associations, 1)
	assert.Equal(t, 0, parser.Report().Count(report.LevelError))

	assoc := result.Associations[0]
	assert.Equal(t, curie.New("MGI", "MGI:1918911"), assoc.Subject)
	assert.Equal(t, curie.MustParse("GO:0003674"), assoc.Object)
	assert.Equal(t, relation.Enables, assoc.Relation)
	assert.Equal(t, []string{"enables"}, assoc.Qualifiers)
	assert.False(t, assoc.Negated)
	assert.Equal(t, curie.MustParse("ECO:0000307"), assoc.Evidence.Type)
	assert.Equal(t, []curie.Curie{
		curie.MustParse("MGI:MGI:2156816"),
		curie.MustParse("GO_REF:0000015"),
	}, assoc.Evidence.HasSupportingReference)
	assert.Empty(t, assoc.Evidence.WithSupportFrom)
	assert.Empty(t, assoc.ObjectExtensions)
	assert.Equal(t, "20100209", assoc.Date)
	assert.Equal(t, "MGI", assoc.ProvidedBy)
	assert.Equal(t, "1.2", assoc.Version)
	assert.Equal(t, strings.Join(gpad12Fields(), "\t"), assoc.SourceLine)
}

func TestGPAD12Negation(t *testing.T) {
	parser := newGPAD(t, "1.2", testOptions())
	fields := gpad12Fields()
	fields[gpadQualifier] = "NOT|enables"

	result, err := parser.ToAssociation(fields, "1.2")
	require.NoError(t, err)
	require.Len(t, result.Associations, 1)
	assert.True(t, result.Associations[0].Negated)
	assert.Equal(t, []string{"enables"}, result.Associations[0].Qualifiers)
}

func TestGPAD20ToAssociation(t *testing.T) {
	parser := newGPAD(t, "2.0", testOptions())
	fields := gpad20Fields()

	result, err := parser.ToAssociation(fields, "2.0")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Associations, 1)
	assert.Equal(t, 0, parser.Report().Count(report.LevelError))
	assert.Equal(t, []association.Property{
		{Key: "creation-date", Value: "2020-09-17"},
		{Key: "modification-date", Value: "2020-09-17"},
		{Key: "contributor-id", Value: "http://orcid.org/0000-0003-2689-5511"},
	}, result.Associations[0].Properties)

	t.Run("extensions", func(t *testing.T) {
		fields[gpadExtension] = "BFO:0000066(CL:0000010),GOREL:0001004(CL:0000010)"
		result, err := parser.ToAssociation(fields, "2.0")
		require.NoError(t, err)
		require.Len(t, result.Associations, 1)
		assert.Equal(t, []association.ConjunctiveSet[association.ExtensionUnit]{{
			{Relation: curie.New("BFO", "0000066"), Term: curie.New("CL", "0000010")},
			{Relation: curie.New("GOREL", "0001004"), Term: curie.New("CL", "0000010")},
		}}, result.Associations[0].ObjectExtensions)
	})

	t.Run("with from", func(t *testing.T) {
		fields[gpadWithFrom] = "PR:Q505B8|PR:Q8CHK4"
		result, err := parser.ToAssociation(fields, "2.0")
		require.NoError(t, err)
		require.Len(t, result.Associations, 1)
		assert.Equal(t, []association.ConjunctiveSet[curie.Curie]{
			{curie.New("PR", "Q505B8")},
			{curie.New("PR", "Q8CHK4")},
		}, result.Associations[0].Evidence.WithSupportFrom)
	})

	t.Run("non MGI subject", func(t *testing.T) {
		fields[gpad2Subject] = "WB:WBGene00001189"
		result, err := parser.ToAssociation(fields, "2.0")
		require.NoError(t, err)
		require.Len(t, result.Associations, 1)
		assert.Equal(t, curie.New("WB", "WBGene00001189"), result.Associations[0].Subject)
	})

	t.Run("negation column", func(t *testing.T) {
		negated := gpad20Fields()
		negated[gpad2Negation] = "NOT"
		result, err := parser.ToAssociation(negated, "2.0")
		require.NoError(t, err)
		require.Len(t, result.Associations, 1)
		assert.True(t, result.Associations[0].Negated)
		assert.Equal(t, []string{"enables"}, result.Associations[0].Qualifiers)
	})
}

func TestGPADContentErrors(t *testing.T) {
	tests := []struct {
		name    string
		version string
		mutate  func([]string)
		rule    string
	}{
		{"bad object", "1.2", func(f []string) { f[gpadTermID] = "GO0003674" }, report.RuleInvalidIdentifier},
		{"bad evidence", "1.2", func(f []string) { f[gpadEvidence] = "ECO" }, report.RuleInvalidIdentifier},
		{"unknown relation", "1.2", func(f []string) { f[gpadQualifier] = "frobnicates" }, report.RuleUnknownRelation},
		{"two relations", "1.2", func(f []string) { f[gpadQualifier] = "enables|involved_in" }, report.RuleInvalidQualifier},
		{"dashed date in 1.2", "1.2", func(f []string) { f[gpadDate] = "2010-02-09" }, report.RuleInvalidDate},
		{"compact date in 2.0", "2.0", func(f []string) { f[gpadDate] = "20200917" }, report.RuleInvalidDate},
		{"bad negation", "2.0", func(f []string) { f[gpad2Negation] = "maybe" }, report.RuleInvalidQualifier},
		{"bad relation curie", "2.0", func(f []string) { f[gpad2Relation] = "enables" }, report.RuleInvalidIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := newGPAD(t, tt.version, testOptions())
			fields := gpad12Fields()
			if tt.version == "2.0" {
				fields = gpad20Fields()
			}
			tt.mutate(fields)

			result, err := parser.ToAssociation(fields, tt.version)
			require.NoError(t, err)
			assert.Empty(t, result.Associations)
			assert.Equal(t, 1, result.Skipped)
			require.NotEmpty(t, parser.Report().Messages(tt.rule))
			assert.Equal(t, report.LevelError, parser.Report().Messages(tt.rule)[0].Level)
		})
	}
}

func TestGPADSchemaMismatch(t *testing.T) {
	parser := newGPAD(t, "1.2", testOptions())

	_, err := parser.ToAssociation(gpad12Fields()[:9], "1.2")
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = parser.ToAssociation(gpad12Fields(), "3.0")
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = NewGPADParser("9.9", testOptions())
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestGPADCompoundLeafHandling(t *testing.T) {
	t.Run("tolerant drops leaf with warning", func(t *testing.T) {
		parser := newGPAD(t, "1.2", testOptions())
		fields := gpad12Fields()
		fields[gpadWithFrom] = "PR:Q505B8,notacurie|PR:Q8CHK4"

		result, err := parser.ToAssociation(fields, "1.2")
		require.NoError(t, err)
		require.Len(t, result.Associations, 1)
		assert.Equal(t, []association.ConjunctiveSet[curie.Curie]{
			{curie.New("PR", "Q505B8")},
			{curie.New("PR", "Q8CHK4")},
		}, result.Associations[0].Evidence.WithSupportFrom)

		messages := parser.Report().Messages(report.RuleInvalidElement)
		require.Len(t, messages, 1)
		assert.Equal(t, report.LevelWarning, messages[0].Level)
		assert.Equal(t, "notacurie", messages[0].Object)
	})

	t.Run("strict escalates to error", func(t *testing.T) {
		options := testOptions()
		options.Config = DefaultConfig()
		options.Config.StrictCompoundFields = true
		parser := newGPAD(t, "1.2", options)
		fields := gpad12Fields()
		fields[gpadExtension] = "occurs_in(CL:0000010),broken"

		result, err := parser.ToAssociation(fields, "1.2")
		require.NoError(t, err)
		assert.Empty(t, result.Associations)
		assert.Equal(t, 1, result.Skipped)
		messages := parser.Report().Messages(report.RuleInvalidElement)
		require.Len(t, messages, 1)
		assert.Equal(t, report.LevelError, messages[0].Level)
	})

	t.Run("bad property warns only", func(t *testing.T) {
		parser := newGPAD(t, "1.2", testOptions())
		fields := gpad12Fields()
		fields[gpadProperties] = "contributor=MGI|novalue"

		result, err := parser.ToAssociation(fields, "1.2")
		require.NoError(t, err)
		require.Len(t, result.Associations, 1)
		assert.Equal(t, []association.Property{{Key: "contributor", Value: "MGI"}}, result.Associations[0].Properties)
		assert.Len(t, parser.Report().Messages(report.RuleInvalidProperty), 1)
	})
}

func TestGPADRegistryEnrichment(t *testing.T) {
	registry := entity.NewRegistry()
	registry.Add(&association.Subject{
		ID:    curie.New("MGI", "MGI:1918911"),
		Label: "Cdc45",
		Taxon: curie.MustParse("NCBITaxon:10090"),
	})

	t.Run("known subject", func(t *testing.T) {
		options := testOptions()
		options.Registry = registry
		parser := newGPAD(t, "1.2", options)

		result, err := parser.ToAssociation(gpad12Fields(), "1.2")
		require.NoError(t, err)
		require.Len(t, result.Associations, 1)
		require.NotNil(t, result.Associations[0].SubjectEntity)
		assert.Equal(t, "Cdc45", result.Associations[0].SubjectEntity.Label)
	})

	t.Run("unknown subject is a warning", func(t *testing.T) {
		options := testOptions()
		options.Registry = registry
		parser := newGPAD(t, "1.2", options)
		fields := gpad12Fields()
		fields[gpadObjectID] = "MGI:0000001"

		result, err := parser.ToAssociation(fields, "1.2")
		require.NoError(t, err)
		require.Len(t, result.Associations, 1)
		assert.Nil(t, result.Associations[0].SubjectEntity)
		messages := parser.Report().Messages(report.RuleUnknownSubject)
		require.Len(t, messages, 1)
		assert.Equal(t, report.LevelWarning, messages[0].Level)
	})

	t.Run("empty registry stays quiet", func(t *testing.T) {
		parser := newGPAD(t, "1.2", testOptions())
		_, err := parser.ToAssociation(gpad12Fields(), "1.2")
		require.NoError(t, err)
		assert.Empty(t, parser.Report().Messages(report.RuleUnknownSubject))
	})

	t.Run("taxon filter", func(t *testing.T) {
		options := testOptions()
		options.Registry = registry
		options.Config = DefaultConfig()
		options.Config.ValidTaxa = []string{"NCBITaxon:9606"}
		parser := newGPAD(t, "1.2", options)

		result, err := parser.ToAssociation(gpad12Fields(), "1.2")
		require.NoError(t, err)
		assert.Empty(t, result.Associations)
		assert.Equal(t, 1, result.Skipped)
		assert.Len(t, parser.Report().Messages(report.RuleTaxonNotAllowed), 1)
		assert.False(t, parser.Report().HasErrors())
	})
}

func TestGPADEvidenceFilter(t *testing.T) {
	tests := []struct {
		excluded string
		evidence string
	}{
		{"ND", "ECO:0000307"},
		{"ECO:0000307", "ECO:0000307"},
		{"IEA", "ECO:0000501"},
		{"IEA", "ECO:0000256"},
		{"iea", "ECO:0000265"},
	}

	for _, tt := range tests {
		t.Run(tt.excluded+"/"+tt.evidence, func(t *testing.T) {
			options := testOptions()
			options.Config = DefaultConfig()
			options.Config.ExcludeEvidence = []string{tt.excluded}
			parser := newGPAD(t, "1.2", options)

			fields := gpad12Fields()
			fields[gpadEvidence] = tt.evidence
			result, err := parser.ToAssociation(fields, "1.2")
			require.NoError(t, err)
			assert.Empty(t, result.Associations)
			assert.Equal(t, 1, result.Skipped)
			assert.Empty(t, parser.Report().All())
		})
	}

	t.Run("other evidence passes", func(t *testing.T) {
		options := testOptions()
		options.Config = DefaultConfig()
		options.Config.ExcludeEvidence = []string{"IEA"}
		parser := newGPAD(t, "1.2", options)

		result, err := parser.ToAssociation(gpad12Fields(), "1.2")
		require.NoError(t, err)
		assert.Len(t, result.Associations, 1)
	})
}

func TestGPADParseLine(t *testing.T) {
	parser := newGPAD(t, "1.2", testOptions())

	result, err := parser.ParseLine("!generated-by: MGI")
	require.NoError(t, err)
	assert.Empty(t, result.Associations)
	assert.Equal(t, []string{"!generated-by: MGI"}, parser.Headers())

	result, err = parser.ParseLine("")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, parser.Report().All())

	result, err = parser.ParseLine("MGI\tMGI:1\tenables")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, parser.Report().Messages(report.RuleColumnCount), 1)

	missingObject := gpad12Fields()
	missingObject[gpadTermID] = ""
	result, err = parser.ParseLine(strings.Join(missingObject, "\t"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, parser.Report().Messages(report.RuleMissingField), 1)

	// Trailing extension and property columns may be omitted.
	short := gpad12Fields()[:10]
	result, err = parser.ParseLine(strings.Join(short, "\t") + "\r\n")
	require.NoError(t, err)
	require.Len(t, result.Associations, 1)
	assert.Equal(t, strings.Join(short, "\t"), result.Associations[0].SourceLine)

	assert.Equal(t, 3, parser.Report().LineCount())
	assert.Equal(t, 1, parser.Report().AssociationCount())
}
