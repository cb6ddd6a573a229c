package association

import (
	"strings"

	"github.com/coolbeans/assockit/pkg/curie"
)

// ParseTaxon parses a taxon identifier, normalizing the legacy "taxon:" prefix
// used by GAF and GPI 1.x to "NCBITaxon:".
func ParseTaxon(value string) (curie.Curie, error) {
	parsed, err := curie.Parse(value)
	if err != nil {
		return curie.Curie{}, err
	}
	if strings.EqualFold(parsed.Namespace, "taxon") {
		parsed = curie.New("NCBITaxon", parsed.LocalID)
	}
	return parsed, nil
}
