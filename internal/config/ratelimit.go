package config

import (
	"fmt"
	"regexp"
	"time"
)

// RateLimitRule is a limit count over a time window.
type RateLimitRule struct {
	// Limit is the maximum number of requests allowed in the window.
	Limit int `yaml:"limit" json:"limit"`

	// Window is the sliding time window for the limit.
	Window Duration `yaml:"window" json:"window"`
}

// GetEffectiveWindow returns the rule window, defaulting when unset.
func (r *RateLimitRule) GetEffectiveWindow() time.Duration {
	if r == nil || r.Window == 0 {
		return DefaultRateLimitWindow
	}
	return r.Window.Duration()
}

// EndpointPattern rewrites matching endpoint keys to a shared label so that
// parameterized paths collapse into one rate-limit bucket.
type EndpointPattern struct {
	// Pattern is a regular expression matched against "METHOD path".
	Pattern string `yaml:"pattern" json:"pattern"`

	// Label replaces the endpoint key when the pattern matches.
	Label string `yaml:"label" json:"label"`
}

// Compile compiles the pattern, returning an error for invalid expressions.
func (p *EndpointPattern) Compile() (*regexp.Regexp, error) {
	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint pattern %q: %w", p.Pattern, err)
	}
	return re, nil
}

// RateLimitConfig configures request rate limiting.
type RateLimitConfig struct {
	// Enabled enables rate limiting.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Rules maps an exact endpoint key ("METHOD path" after normalization)
	// to a rule overriding the defaults.
	Rules map[string]RateLimitRule `yaml:"rules,omitempty" json:"rules,omitempty"`

	// AuthenticatedDefault applies to authenticated clients with no
	// endpoint override.
	AuthenticatedDefault *RateLimitRule `yaml:"authenticatedDefault,omitempty" json:"authenticatedDefault,omitempty"`

	// AnonymousDefault applies to anonymous clients with no endpoint
	// override.
	AnonymousDefault *RateLimitRule `yaml:"anonymousDefault,omitempty" json:"anonymousDefault,omitempty"`

	// EndpointPatterns normalize endpoint keys before rule lookup.
	EndpointPatterns []EndpointPattern `yaml:"endpointPatterns,omitempty" json:"endpointPatterns,omitempty"`
}

// DefaultRateLimitConfig returns a RateLimitConfig with default values.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: true,
		AuthenticatedDefault: &RateLimitRule{
			Limit:  DefaultAuthenticatedLimit,
			Window: Duration(DefaultRateLimitWindow),
		},
		AnonymousDefault: &RateLimitRule{
			Limit:  DefaultAnonymousLimit,
			Window: Duration(DefaultRateLimitWindow),
		},
	}
}

// Validate checks the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	for key, rule := range c.Rules {
		if rule.Limit <= 0 {
			return fmt.Errorf("rule %q: limit must be positive", key)
		}
		if rule.Window < 0 {
			return fmt.Errorf("rule %q: window must not be negative", key)
		}
	}
	if c.AuthenticatedDefault != nil && c.AuthenticatedDefault.Limit <= 0 {
		return fmt.Errorf("authenticatedDefault: limit must be positive")
	}
	if c.AnonymousDefault != nil && c.AnonymousDefault.Limit <= 0 {
		return fmt.Errorf("anonymousDefault: limit must be positive")
	}
	for _, pattern := range c.EndpointPatterns {
		if _, err := pattern.Compile(); err != nil {
			return err
		}
	}
	return nil
}
