// Package collectors implements component C3's concrete input plugins: the
// inputs/*.py equivalents, each producing telemetry.Batch values from a
// system resource (CPU, memory, disk, network, a shell command, an HTTP
// probe, a container runtime, a database, or a network listener).
//
// REDESIGN FLAGS §9 replaces the source's dynamic by-name module import with
// a static, compile-time catalog of factories: every input name the agent
// can ever select is known ahead of time, which Go's package system favors
// over reflective plugin loading.
package collectors

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// Factory builds a collector descriptor from its configured option bag.
type Factory func(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error)

var catalog = map[string]Factory{
	"linux_cpu":      newCPUCollector,
	"macos_cpu":      newCPUCollector,
	"linux_mem":      newMemCollector,
	"macos_mem":      newMemCollector,
	"linux_disk":     newDiskCollector,
	"macos_disk":     newDiskCollector,
	"linux_net":      newNetCollector,
	"macos_net":      newNetCollector,
	"exec":           newExecCollector,
	"http_response":  newHTTPResponseCollector,
	"docker":         newDockerCollector,
	"postgres":       newPostgresCollector,
	"mariadb":        newMariaDBCollector,
	"syslog":         newSyslogCollector,
	"file_tail":      newFileTailCollector,
	"internal_stats": newInternalStatsCollector,
}

// Names reports every collector name this catalog can build, for platform
// alias resolution (spec.md §6).
func Names() map[string]bool {
	out := make(map[string]bool, len(catalog))
	for name := range catalog {
		out[name] = true
	}
	return out
}

// Build looks up name in the catalog and constructs its descriptor. An
// unknown name is not a fatal error here: callers (internal/app) are
// expected to log a warning and skip the entry per spec.md §7.
func Build(name string, options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	factory, ok := catalog[name]
	if !ok {
		return telemetry.CollectorDescriptor{}, fmt.Errorf("collectors: unknown input %q", name)
	}
	desc, err := factory(options, logger)
	if err != nil {
		return telemetry.CollectorDescriptor{}, fmt.Errorf("collectors: building %q: %w", name, err)
	}
	desc.Name = name
	return desc, nil
}

func stringOption(options map[string]interface{}, key, fallback string) string {
	if v, ok := options[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intOption(options map[string]interface{}, key string, fallback int) int {
	switch v := options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func stringSliceOption(options map[string]interface{}, key string) []string {
	raw, ok := options[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
