package config

import "fmt"

// UnmarshalYAML accepts either a bare plugin name ("linux_cpu") or a
// single-key map ({exec: {commands: [...]}}), matching main.py's handling
// of `inputs`/`outputs` list entries.
func (p *PluginEntry) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		p.Name = name
		p.Options = map[string]interface{}{}
		return nil
	}

	var asMap map[string]interface{}
	if err := unmarshal(&asMap); err != nil {
		return fmt.Errorf("config: plugin entry must be a name or a single-key map: %w", err)
	}
	if len(asMap) != 1 {
		return fmt.Errorf("config: plugin entry map must have exactly one key, got %d", len(asMap))
	}
	for name, rawOptions := range asMap {
		p.Name = name
		p.Options = normalizeYAMLMap(rawOptions)
	}
	return nil
}

// normalizeYAMLMap recursively converts yaml.v2's map[interface{}]interface{}
// nodes into map[string]interface{}, so downstream consumers of plugin
// options (secret resolution, collector/sink factories) only ever see
// JSON-compatible shapes.
func normalizeYAMLMap(v interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	switch m := v.(type) {
	case map[string]interface{}:
		for k, val := range m {
			out[k] = normalizeYAMLValue(val)
		}
	case map[interface{}]interface{}:
		for k, val := range m {
			key := fmt.Sprintf("%v", k)
			out[key] = normalizeYAMLValue(val)
		}
	}
	return out
}

func normalizeYAMLValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}, map[string]interface{}:
		return normalizeYAMLMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeYAMLValue(item)
		}
		return out
	default:
		return val
	}
}
