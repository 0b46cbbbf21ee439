// Package sinks implements component C5's concrete output plugins: the
// outputs/*.py equivalents, each delivering a telemetry.Batch to a
// time-series database, search index, message broker, object store, local
// file, or stdout.
//
// As with internal/collectors, REDESIGN FLAGS §9 replaces the source's
// dynamic by-name module import with a static, compile-time catalog of
// factories.
package sinks

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// Factory builds a sink from its configured option bag.
type Factory func(options map[string]interface{}, logger *logrus.Logger) (telemetry.Sink, error)

var catalog = map[string]Factory{
	"redis_timeseries": newRedisTimeseriesSink,
	"elasticsearch":    newElasticsearchSink,
	"kafka":            newKafkaSink,
	"nats":             newNATSSink,
	"s3_archive":       newS3ArchiveSink,
	"local_file":       newLocalFileSink,
	"stdout":           newStdoutSink,
}

// Names reports every sink name this catalog can build.
func Names() map[string]bool {
	out := make(map[string]bool, len(catalog))
	for name := range catalog {
		out[name] = true
	}
	return out
}

// Build looks up name in the catalog and constructs it. An unknown name is
// not fatal here: callers (internal/app) log a warning and skip the entry
// per spec.md §7.
func Build(name string, options map[string]interface{}, logger *logrus.Logger) (telemetry.Sink, error) {
	factory, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("sinks: unknown output %q", name)
	}
	sink, err := factory(options, logger)
	if err != nil {
		return nil, fmt.Errorf("sinks: building %q: %w", name, err)
	}
	return sink, nil
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

func boolOption(options map[string]interface{}, key string, fallback bool) bool {
	if v, ok := options[key].(bool); ok {
		return v
	}
	return fallback
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
