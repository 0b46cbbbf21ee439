// Package config loads and validates the YAML configuration document
// described in spec.md §6, then resolves secret:… placeholders through
// component C8 before the application wires up collectors and sinks.
package config

// PluginEntry names an enabled input or output and carries its own option
// bag, matching the source's `inputs`/`outputs` list entries which are
// either a bare plugin name or a single-key `{name: options}` map.
type PluginEntry struct {
	Name    string
	Options map[string]interface{}
}

// Config is the top-level configuration document (spec.md §6).
type Config struct {
	App         AppConfig         `yaml:"app"`
	Interval    int               `yaml:"interval"`
	FlushInterval int             `yaml:"flush_interval"`
	MaxBufferSize int             `yaml:"max_buffer_size"`
	WarnOnBuffer  bool            `yaml:"warn_on_buffer"`
	Tags          map[string]string `yaml:"tags"`

	Inputs             []PluginEntry `yaml:"inputs"`
	Outputs            []PluginEntry `yaml:"outputs"`
	LogsOnlyOutputs    []PluginEntry `yaml:"logs_only_outputs"`
	MetricsOnlyOutputs []PluginEntry `yaml:"metrics_only_outputs"`

	SecretStore map[string]interface{} `yaml:"secret_store"`
	SelfMetrics SelfMetricsConfig       `yaml:"self_metrics"`
}

// AppConfig carries ambient, non-domain settings.
type AppConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	DotEnvFile string `yaml:"dotenv_file"`
}

// SelfMetricsConfig configures the /metrics and /healthz HTTP surface.
type SelfMetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}
