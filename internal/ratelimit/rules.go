package ratelimit

import (
	"github.com/openvms/gatekit/internal/config"
)

// RuleSet resolves the applicable rate limit rule for a request. Resolution
// order: exact endpoint-key override, then the authenticated or anonymous
// default. A nil result means the request is allowed unconditionally.
type RuleSet struct {
	overrides     map[string]Rule
	authenticated *Rule
	anonymous     *Rule
}

// NewRuleSet builds a RuleSet from configuration.
func NewRuleSet(cfg *config.RateLimitConfig) *RuleSet {
	rs := &RuleSet{
		overrides: make(map[string]Rule, len(cfg.Rules)),
	}

	for key, rule := range cfg.Rules {
		rs.overrides[key] = Rule{
			Limit:  rule.Limit,
			Window: rule.GetEffectiveWindow(),
		}
	}

	if cfg.AuthenticatedDefault != nil {
		rs.authenticated = &Rule{
			Limit:  cfg.AuthenticatedDefault.Limit,
			Window: cfg.AuthenticatedDefault.GetEffectiveWindow(),
		}
	}
	if cfg.AnonymousDefault != nil {
		rs.anonymous = &Rule{
			Limit:  cfg.AnonymousDefault.Limit,
			Window: cfg.AnonymousDefault.GetEffectiveWindow(),
		}
	}

	return rs
}

// Resolve returns the rule for the endpoint key, or nil when no rule applies.
func (rs *RuleSet) Resolve(endpointKey string, authenticated bool) *Rule {
	if rule, ok := rs.overrides[endpointKey]; ok {
		return &rule
	}
	if authenticated {
		return rs.authenticated
	}
	return rs.anonymous
}
