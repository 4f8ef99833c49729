package extension

// Config holds the tierguard extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.tierguard" or "tierguard" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for tierguard routes (default: "/tierguard").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// EngineConfigFile is a YAML file with the engine configuration.
	EngineConfigFile string `json:"engine_config_file" mapstructure:"engine_config_file" yaml:"engine_config_file"`

	// TemplatesFile is a YAML file of custom permission templates.
	TemplatesFile string `json:"templates_file" mapstructure:"templates_file" yaml:"templates_file"`

	// CatalogFile is a YAML catalog seed applied on start.
	CatalogFile string `json:"catalog_file" mapstructure:"catalog_file" yaml:"catalog_file"`

	// RulesFile is a YAML file of custom CEL validation rules.
	RulesFile string `json:"rules_file" mapstructure:"rules_file" yaml:"rules_file"`

	// AuthzModelFile and AuthzPolicyFile replace the built-in casbin model
	// and policy that gate the API. Both must be set together.
	AuthzModelFile  string `json:"authz_model_file" mapstructure:"authz_model_file" yaml:"authz_model_file"`
	AuthzPolicyFile string `json:"authz_policy_file" mapstructure:"authz_policy_file" yaml:"authz_policy_file"`

	// DisableAuthz serves the API without the tier authorizer.
	DisableAuthz bool `json:"disable_authz" mapstructure:"disable_authz" yaml:"disable_authz"`

	// EnableMetrics registers the Prometheus plugin with the default
	// registerer.
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath: "/tierguard",
	}
}
