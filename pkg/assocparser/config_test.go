package assocparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/assockit/pkg/curie"
)

func TestParseConfig(t *testing.T) {
	data := []byte(`
strict_compound_fields: true
exclude_evidence: [IEA, ND]
valid_taxa: ["NCBITaxon:10090"]
relations:
  regulates_activity_of: RO:0002578
dataset:
  id: mgi
  group: mgi
`)
	config, err := ParseConfig(data)
	require.NoError(t, err)
	assert.True(t, config.StrictCompoundFields)
	assert.Equal(t, []string{"IEA", "ND"}, config.ExcludeEvidence)
	assert.Equal(t, "mgi", config.Dataset.ID)

	id, ok := config.RelationTable().Lookup("regulates_activity_of")
	require.True(t, ok)
	assert.Equal(t, curie.MustParse("RO:0002578"), id)

	_, ok = config.RelationTable().Lookup("enables")
	assert.True(t, ok)
	assert.Positive(t, config.EvidenceMap().Len())
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte("relations:\n  broken: notacurie\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("eco_mapping: /does/not/exist.tsv\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("strict_compound_fields: [\n"))
	assert.Error(t, err)
}

func TestLoadConfigWithECOMapping(t *testing.T) {
	dir := t.TempDir()
	mappingPath := filepath.Join(dir, "gaf-eco-mapping.txt")
	require.NoError(t, os.WriteFile(mappingPath, []byte("# code\tref\teco\nIDA\tDefault\tECO:0000314\n"), 0o644))

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("eco_mapping: "+mappingPath+"\n"), 0o644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, 1, config.EvidenceMap().Len())

	round, err := config.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(round), "eco_mapping: "+mappingPath)
}

func TestNilConfigFallsBack(t *testing.T) {
	var config *Config
	assert.NotNil(t, config.RelationTable())
	assert.NotNil(t, config.EvidenceMap())
}
