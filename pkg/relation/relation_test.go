package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/assockit/pkg/curie"
)

func TestDefaultLookup(t *testing.T) {
	table := Default()

	id, ok := table.Lookup("enables")
	require.True(t, ok)
	assert.Equal(t, Enables, id)

	id, ok = table.Lookup(" Part_Of ")
	require.True(t, ok)
	assert.Equal(t, PartOf, id)

	_, ok = table.Lookup("not_a_relation")
	assert.False(t, ok)

	label, ok := table.Label(InvolvedIn)
	require.True(t, ok)
	assert.Equal(t, "involved_in", label)
}

func TestResolve(t *testing.T) {
	table := Default()

	id, ok := table.Resolve("occurs_in")
	require.True(t, ok)
	assert.Equal(t, curie.MustParse("BFO:0000066"), id)

	id, ok = table.Resolve("GOREL:0001004")
	require.True(t, ok)
	assert.Equal(t, curie.MustParse("GOREL:0001004"), id)

	_, ok = table.Resolve("unknown")
	assert.False(t, ok)
}

func TestWithOverrides(t *testing.T) {
	table, err := WithOverrides(map[string]string{
		"has_regulation_target": "GOREL:0000015",
		"enables":               "RO:9999999",
	})
	require.NoError(t, err)

	id, ok := table.Lookup("has_regulation_target")
	require.True(t, ok)
	assert.Equal(t, curie.MustParse("GOREL:0000015"), id)

	id, _ = table.Lookup("enables")
	assert.Equal(t, curie.MustParse("RO:9999999"), id)

	_, err = WithOverrides(map[string]string{"broken": "nocolon"})
	assert.ErrorIs(t, err, curie.ErrMalformedIdentifier)
}
