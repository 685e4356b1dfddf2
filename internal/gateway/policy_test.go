package gateway

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())

	assert.Equal(t, 7*24*time.Hour, p.ExtendThreshold())
	assert.Equal(t, 30*24*time.Hour, p.ExtendBy())
	assert.Equal(t, 24*time.Hour, p.ReplaceGrace())
	assert.Equal(t, time.Minute, p.CacheTTL())
	assert.Equal(t, 0.7, p.RiskThreshold)
	assert.Equal(t, "store", p.ValidationMode)
}

func TestLoadPolicy_EmptyPathUsesDefaults(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
}

func TestLoadPolicy_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
extend_threshold_days: 14
cache_ttl_seconds: 30
risk_threshold: 0.5
require_family: live
`), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 14, p.ExtendThresholdDays)
	assert.Equal(t, 30*time.Second, p.CacheTTL())
	assert.Equal(t, 0.5, p.RiskThreshold)
	assert.Equal(t, "live", p.RequireFamily)
	// Unset fields keep defaults.
	assert.Equal(t, 30, p.ExtendByDays)
}

func TestLoadPolicy_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache_ttl_seconds: 86400\n"), 0o600))

	_, err := LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache_ttl_seconds")
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr string
	}{
		{"extend below threshold", func(p *Policy) { p.ExtendByDays = 3 }, "extend_by_days"},
		{"risk threshold above one", func(p *Policy) { p.RiskThreshold = 1.5 }, "risk_threshold"},
		{"unknown validation mode", func(p *Policy) { p.ValidationMode = "hybrid" }, "validation_mode"},
		{"static mode without tokens", func(p *Policy) { p.ValidationMode = "static" }, "static_tokens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPolicy_TierFor(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		scopes []string
		want   Tier
	}{
		{"no scopes", nil, TierRestricted},
		{"standard read", []string{"resource:read"}, TierStandard},
		{"elevated wins over standard", []string{"resource:read", "credentials:write"}, TierElevated},
		{"admin wins over all", []string{"resource:read", "platform:admin"}, TierAdmin},
		// Fail-closed: unrecognized scopes never raise the tier.
		{"unrecognized scope", []string{"nuclear:launch"}, TierRestricted},
		{"unrecognized mixed with known", []string{"nuclear:launch", "audit:read"}, TierStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.TierFor(tt.scopes))
		})
	}
}

func TestTierOrdering(t *testing.T) {
	assert.True(t, TierAdmin > TierElevated)
	assert.True(t, TierElevated > TierStandard)
	assert.True(t, TierStandard > TierRestricted)
}

func TestParseTier_UnknownFailsClosed(t *testing.T) {
	assert.Equal(t, TierRestricted, ParseTier("SUPERUSER"))
	assert.Equal(t, TierAdmin, ParseTier("ADMIN"))
}
