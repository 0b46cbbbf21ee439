package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"rtcollector/internal/secretstore"
)

// Load reads, defaults, validates, and secret-resolves the configuration
// document at path. Grounded on core/config.py's load_config plus the
// teacher's internal/config/config.go default-and-override pipeline.
func Load(path string, logger *logrus.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := ValidateAgainstSchema(data); err != nil {
		return nil, fmt.Errorf("config: schema validation failed: %w", err)
	}

	resolveSecrets(&cfg, logger)

	if err := validateSemantics(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.LogFormat == "" {
		cfg.App.LogFormat = "json"
	}
	if cfg.Interval == 0 {
		cfg.Interval = 15
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = cfg.Interval
	}
	if cfg.MaxBufferSize == 0 {
		cfg.MaxBufferSize = 5000
	}
	if cfg.SelfMetrics.Addr == "" {
		cfg.SelfMetrics.Addr = ":9209"
	}
	if cfg.Tags == nil {
		cfg.Tags = map[string]string{}
	}
}

func validateSemantics(cfg *Config) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %d", cfg.Interval)
	}
	if cfg.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be positive, got %d", cfg.FlushInterval)
	}
	if len(cfg.Inputs) == 0 {
		return fmt.Errorf("at least one input must be configured")
	}
	return nil
}

// resolveSecrets walks every plugin's option bag and the global tag set,
// replacing secret:… placeholders via the configured provider (component
// C8). Unresolved placeholders are left in place; this never fails startup.
func resolveSecrets(cfg *Config, logger *logrus.Logger) {
	if cfg.App.DotEnvFile != "" {
		secretstore.LoadDotEnv(cfg.App.DotEnvFile, logger)
	}

	provider := secretstore.ProviderFromConfig(cfg.SecretStore)
	resolver := secretstore.New(provider, logger)

	tags := make(map[string]interface{}, len(cfg.Tags))
	for k, v := range cfg.Tags {
		tags[k] = v
	}
	resolved := resolver.Resolve(tags).(map[string]interface{})
	for k, v := range resolved {
		if s, ok := v.(string); ok {
			cfg.Tags[k] = s
		}
	}

	resolveEntries(cfg.Inputs, resolver)
	resolveEntries(cfg.Outputs, resolver)
	resolveEntries(cfg.LogsOnlyOutputs, resolver)
	resolveEntries(cfg.MetricsOnlyOutputs, resolver)
}

func resolveEntries(entries []PluginEntry, resolver *secretstore.Resolver) {
	for i := range entries {
		if entries[i].Options == nil {
			continue
		}
		entries[i].Options = resolver.Resolve(entries[i].Options).(map[string]interface{})
	}
}
