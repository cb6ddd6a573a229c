package assocparser

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/assockit/pkg/ecomap"
	"github.com/coolbeans/assockit/pkg/relation"
)

// Config controls parser behaviour. It is loaded from YAML and resolved once;
// a resolved Config is read-only and may be shared by parsers running in
// different goroutines.
type Config struct {
	// StrictCompoundFields escalates a dropped element of a multi-valued
	// column from WARNING to ERROR, which skips the line.
	StrictCompoundFields bool `yaml:"strict_compound_fields"`

	// ExcludeEvidence lists GO evidence codes or ECO ids whose lines are filtered out.
	ExcludeEvidence []string `yaml:"exclude_evidence,omitempty"`

	// ValidTaxa restricts subjects to these taxa when non-empty.
	ValidTaxa []string `yaml:"valid_taxa,omitempty"`

	// Relations adds or overrides relation label to curie entries.
	Relations map[string]string `yaml:"relations,omitempty"`

	// ECOMapping is an optional gaf-eco-mapping table replacing the built-in one.
	ECOMapping string `yaml:"eco_mapping,omitempty"`

	// Entities lists GPI side tables to load, later files winning on collision.
	Entities []string `yaml:"entities,omitempty"`

	Dataset DatasetMetadata `yaml:"dataset"`

	relations *relation.Table
	evidence  *ecomap.Mapper
}

// DatasetMetadata describes the annotation source being parsed.
type DatasetMetadata struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label,omitempty"`
	Group string `yaml:"group,omitempty"`
}

// DefaultConfig returns a resolved configuration with built-in lookup tables.
func DefaultConfig() *Config {
	config := &Config{Dataset: DatasetMetadata{ID: "unknown", Group: "unknown"}}
	config.relations = relation.Default()
	config.evidence = ecomap.Default()
	return config
}

// LoadConfig reads and resolves a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and resolves YAML configuration bytes.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := config.Resolve(); err != nil {
		return nil, err
	}
	return config, nil
}

// Resolve builds the lookup tables named by the configuration.
func (c *Config) Resolve() error {
	relations, err := relation.WithOverrides(c.Relations)
	if err != nil {
		return fmt.Errorf("resolving relations: %w", err)
	}
	c.relations = relations

	if c.ECOMapping != "" {
		evidence, err := ecomap.LoadFile(c.ECOMapping)
		if err != nil {
			return fmt.Errorf("resolving eco mapping: %w", err)
		}
		c.evidence = evidence
	} else {
		c.evidence = ecomap.Default()
	}
	return nil
}

// RelationTable returns the resolved relation table, or the built-in one.
func (c *Config) RelationTable() *relation.Table {
	if c == nil || c.relations == nil {
		return relation.Default()
	}
	return c.relations
}

// EvidenceMap returns the resolved evidence mapping, or the built-in one.
func (c *Config) EvidenceMap() *ecomap.Mapper {
	if c == nil || c.evidence == nil {
		return ecomap.Default()
	}
	return c.evidence
}

// ToYAML serializes the configuration.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
