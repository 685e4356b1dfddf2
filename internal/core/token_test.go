package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/credgate/internal/model"
)

func TestMintToken_Live(t *testing.T) {
	raw, err := MintToken(model.FamilyLive)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "cg_live_"))
	assert.Len(t, raw, 8+64)

	family, ok := ParseToken(raw)
	require.True(t, ok)
	assert.Equal(t, model.FamilyLive, family)
}

func TestMintToken_Test(t *testing.T) {
	raw, err := MintToken(model.FamilyTest)
	require.NoError(t, err)

	family, ok := ParseToken(raw)
	require.True(t, ok)
	assert.Equal(t, model.FamilyTest, family)
}

func TestMintToken_UnknownFamily(t *testing.T) {
	_, err := MintToken("staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown token family")
}

func TestMintToken_Unique(t *testing.T) {
	a, err := MintToken(model.FamilyLive)
	require.NoError(t, err)
	b, err := MintToken(model.FamilyLive)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseToken_Malformed(t *testing.T) {
	tests := []string{
		"",
		"cg_live_",
		"cg_live_zzzz",
		"cg_staging_" + strings.Repeat("ab", 32),
		"Bearer cg_live_" + strings.Repeat("ab", 32),
		strings.Repeat("a", 72),
		"cg_live_" + strings.Repeat("AB", 32), // uppercase hex is rejected
	}
	for _, raw := range tests {
		_, ok := ParseToken(raw)
		assert.False(t, ok, "expected %q to be rejected", raw)
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	raw := "cg_live_" + strings.Repeat("ab", 32)

	h1 := HashToken(raw)
	h2 := HashToken(raw)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, raw)
}

func TestTokenPrefix(t *testing.T) {
	raw := "cg_live_" + strings.Repeat("ab", 32)
	assert.Equal(t, "cg_live_abab", TokenPrefix(raw))
	assert.Equal(t, "short", TokenPrefix("short"))
}
