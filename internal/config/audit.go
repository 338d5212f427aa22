package config

import "fmt"

// AuditConfig configures the audit trail pipeline.
type AuditConfig struct {
	// Enabled enables audit trail recording.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// IncludeRequestBody enables request body capture in audit metadata.
	IncludeRequestBody bool `yaml:"includeRequestBody" json:"includeRequestBody"`

	// IncludeExceptionDetails enables stack detail capture on failures.
	IncludeExceptionDetails bool `yaml:"includeExceptionDetails" json:"includeExceptionDetails"`

	// MaxBodyCaptureBytes is the maximum request body size captured for
	// audit metadata. Bodies larger than this are not captured at all.
	MaxBodyCaptureBytes int64 `yaml:"maxBodyCaptureBytes,omitempty" json:"maxBodyCaptureBytes,omitempty"`

	// MaxMetadataBytes is the hard cap on the serialized metadata payload.
	// Payloads exceeding it are replaced by a summary.
	MaxMetadataBytes int `yaml:"maxMetadataBytes,omitempty" json:"maxMetadataBytes,omitempty"`

	// ExcludedPathPrefixes lists path prefixes that are never audited.
	// Health, swagger, and static asset paths are always excluded.
	ExcludedPathPrefixes []string `yaml:"excludedPathPrefixes,omitempty" json:"excludedPathPrefixes,omitempty"`

	// SensitivePaths lists path substrings whose request bodies are never
	// captured (login, password change, password reset).
	SensitivePaths []string `yaml:"sensitivePaths,omitempty" json:"sensitivePaths,omitempty"`

	// SensitiveFields lists field names (case-insensitive) redacted from
	// bodies and query parameters.
	SensitiveFields []string `yaml:"sensitiveFields,omitempty" json:"sensitiveFields,omitempty"`

	// SensitiveHeaders lists header names whose values are redacted
	// wholesale.
	SensitiveHeaders []string `yaml:"sensitiveHeaders,omitempty" json:"sensitiveHeaders,omitempty"`
}

// alwaysExcludedPrefixes are path prefixes excluded from auditing regardless
// of configuration.
var alwaysExcludedPrefixes = []string{
	"/health",
	"/healthz",
	"/metrics",
	"/swagger",
	"/static",
	"/favicon.ico",
}

// DefaultAuditConfig returns an AuditConfig with default values.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:             true,
		IncludeRequestBody:  false,
		MaxBodyCaptureBytes: DefaultMaxBodyCaptureBytes,
		MaxMetadataBytes:    DefaultMaxMetadataBytes,
		SensitivePaths: []string{
			"/login",
			"/change-password",
			"/reset-password",
			"/forgot-password",
		},
		SensitiveFields: []string{
			"password",
			"currentPassword",
			"newPassword",
			"confirmPassword",
			"token",
			"refreshToken",
			"secret",
			"apiKey",
			"ssn",
			"creditCard",
		},
		SensitiveHeaders: []string{
			"Authorization",
			"Cookie",
			"Set-Cookie",
			"X-Api-Key",
		},
	}
}

// Validate checks the audit configuration.
func (c *AuditConfig) Validate() error {
	if c.MaxBodyCaptureBytes < 0 {
		return fmt.Errorf("maxBodyCaptureBytes must not be negative")
	}
	if c.MaxMetadataBytes < 0 {
		return fmt.Errorf("maxMetadataBytes must not be negative")
	}
	return nil
}

// GetEffectiveMaxBodyCaptureBytes returns the effective body capture cap.
func (c *AuditConfig) GetEffectiveMaxBodyCaptureBytes() int64 {
	if c == nil || c.MaxBodyCaptureBytes <= 0 {
		return DefaultMaxBodyCaptureBytes
	}
	return c.MaxBodyCaptureBytes
}

// GetEffectiveMaxMetadataBytes returns the effective metadata hard cap.
func (c *AuditConfig) GetEffectiveMaxMetadataBytes() int {
	if c == nil || c.MaxMetadataBytes <= 0 {
		return DefaultMaxMetadataBytes
	}
	return c.MaxMetadataBytes
}

// ExcludedPrefixes returns the full set of excluded path prefixes, combining
// the built-in exclusions with the configured ones.
func (c *AuditConfig) ExcludedPrefixes() []string {
	prefixes := make([]string, 0, len(alwaysExcludedPrefixes)+len(c.ExcludedPathPrefixes))
	prefixes = append(prefixes, alwaysExcludedPrefixes...)
	prefixes = append(prefixes, c.ExcludedPathPrefixes...)
	return prefixes
}
