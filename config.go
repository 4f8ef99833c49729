package tierguard

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the tierguard engine.
type Config struct {
	// CacheTTL is the time-to-live for cached resolutions.
	// Zero means no caching unless a Cache is supplied.
	CacheTTL time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl"`

	// AuditQueryLimit is the default number of entries returned by audit
	// queries. Defaults to 100.
	AuditQueryLimit int `json:"audit_query_limit,omitempty" yaml:"audit_query_limit"`

	// EnforceTierGuard applies the tier clamps in access checks.
	// Defaults to true.
	EnforceTierGuard *bool `json:"enforce_tier_guard,omitempty" yaml:"enforce_tier_guard"`

	// RequireMasterActor refuses mutations by actors below master unless
	// validation is skipped. Defaults to true.
	RequireMasterActor *bool `json:"require_master_actor,omitempty" yaml:"require_master_actor"`

	// SessionIdleTimeout drops change sessions left untouched for longer,
	// pending changes included. Defaults to one hour.
	SessionIdleTimeout time.Duration `json:"session_idle_timeout,omitempty" yaml:"session_idle_timeout"`

	// ExportVersion is written into export documents. Defaults to "1.0".
	ExportVersion string `json:"export_version,omitempty" yaml:"export_version"`

	// ExportedBy names the exporter when no actor is in the context.
	// Defaults to "system".
	ExportedBy string `json:"exported_by,omitempty" yaml:"exported_by"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	guard, master := true, true
	return Config{
		AuditQueryLimit:    100,
		EnforceTierGuard:   &guard,
		RequireMasterActor: &master,
		SessionIdleTimeout: time.Hour,
		ExportVersion:      "1.0",
		ExportedBy:         "system",
	}
}

// LoadConfigFile reads a YAML config file over DefaultConfig. Durations use
// Go syntax ("30s", "5m").
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("tierguard: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("tierguard: parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AuditQueryLimit <= 0 {
		c.AuditQueryLimit = d.AuditQueryLimit
	}
	if c.SessionIdleTimeout <= 0 {
		c.SessionIdleTimeout = d.SessionIdleTimeout
	}
	if c.ExportVersion == "" {
		c.ExportVersion = d.ExportVersion
	}
	if c.ExportedBy == "" {
		c.ExportedBy = d.ExportedBy
	}
	return c
}

func (c Config) tierGuardEnforced() bool { return c.EnforceTierGuard == nil || *c.EnforceTierGuard }
func (c Config) masterActorRequired() bool {
	return c.RequireMasterActor == nil || *c.RequireMasterActor
}
