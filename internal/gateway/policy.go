package gateway

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy holds the gateway's tunable decision parameters. Loaded from a
// YAML file at startup; the zero-config default is DefaultPolicy.
type Policy struct {
	// ExtendThresholdDays is the remaining-validity threshold below which
	// a credential is considered EXPIRING and gets extended.
	ExtendThresholdDays int `yaml:"extend_threshold_days"`
	// ExtendByDays is how far an extension pushes the expiry from now.
	ExtendByDays int `yaml:"extend_by_days"`
	// ReplaceGraceHours bounds how long after expiry a credential is still
	// eligible for transparent replacement.
	ReplaceGraceHours int `yaml:"replace_grace_hours"`
	// CacheTTLSeconds bounds context-cache staleness. Must stay far below
	// any credential lifetime so revocations land within one window.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	// RiskThreshold gates ELEVATED/ADMIN requests: score must stay below.
	RiskThreshold float64 `yaml:"risk_threshold"`
	// RequireFamily restricts accepted token families ("live" or "test").
	// Empty accepts both.
	RequireFamily string `yaml:"require_family"`
	// ValidationMode selects the validator implementation: "store"
	// (default) or "static" for the legacy config-provisioned token list.
	ValidationMode string `yaml:"validation_mode"`
	// StaticTokens backs the static validator during parallel-run cutover.
	StaticTokens []StaticToken `yaml:"static_tokens"`
	// ScopeTiers maps scope strings to tier names. Scopes not listed here
	// contribute RESTRICTED.
	ScopeTiers map[string]string `yaml:"scope_tiers"`
}

// StaticToken is a config-provisioned credential for the legacy validator.
type StaticToken struct {
	Token    string   `yaml:"token"`
	TenantID string   `yaml:"tenant_id"`
	UserID   string   `yaml:"user_id"`
	Scopes   []string `yaml:"scopes"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() *Policy {
	return &Policy{
		ExtendThresholdDays: 7,
		ExtendByDays:        30,
		ReplaceGraceHours:   24,
		CacheTTLSeconds:     60,
		RiskThreshold:       0.7,
		ValidationMode:      "store",
		ScopeTiers: map[string]string{
			"platform:admin":    "ADMIN",
			"credentials:write": "ELEVATED",
			"credentials:read":  "STANDARD",
			"audit:read":        "STANDARD",
			"resource:read":     "STANDARD",
			"resource:write":    "STANDARD",
		},
	}
}

// LoadPolicy reads a policy file, filling unset fields from the defaults.
func LoadPolicy(path string) (*Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks internal consistency of the policy.
func (p *Policy) Validate() error {
	if p.ExtendThresholdDays <= 0 || p.ExtendByDays <= 0 {
		return fmt.Errorf("extend_threshold_days and extend_by_days must be positive")
	}
	if p.ExtendByDays < p.ExtendThresholdDays {
		return fmt.Errorf("extend_by_days must not be below extend_threshold_days")
	}
	// A cache TTL approaching credential lifetimes would delay revocation
	// visibility; cap it at one hour.
	if p.CacheTTLSeconds <= 0 || p.CacheTTLSeconds > 3600 {
		return fmt.Errorf("cache_ttl_seconds must be in (0, 3600]")
	}
	if p.RiskThreshold <= 0 || p.RiskThreshold > 1 {
		return fmt.Errorf("risk_threshold must be in (0, 1]")
	}
	if p.ValidationMode != "store" && p.ValidationMode != "static" {
		return fmt.Errorf("validation_mode must be store or static")
	}
	if p.ValidationMode == "static" && len(p.StaticTokens) == 0 {
		return fmt.Errorf("static validation_mode requires static_tokens")
	}
	return nil
}

// ExtendThreshold returns the EXPIRING threshold as a duration.
func (p *Policy) ExtendThreshold() time.Duration {
	return time.Duration(p.ExtendThresholdDays) * 24 * time.Hour
}

// ExtendBy returns the extension length as a duration.
func (p *Policy) ExtendBy() time.Duration {
	return time.Duration(p.ExtendByDays) * 24 * time.Hour
}

// ReplaceGrace returns the replacement grace window as a duration.
func (p *Policy) ReplaceGrace() time.Duration {
	return time.Duration(p.ReplaceGraceHours) * time.Hour
}

// CacheTTL returns the context cache TTL as a duration.
func (p *Policy) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

// TierFor derives the access tier for a scope set: the maximum tier any
// scope maps to. Unrecognized scopes contribute RESTRICTED.
func (p *Policy) TierFor(scopes []string) Tier {
	tier := TierRestricted
	for _, s := range scopes {
		if name, ok := p.ScopeTiers[s]; ok {
			if t := ParseTier(name); t > tier {
				tier = t
			}
		}
	}
	return tier
}
