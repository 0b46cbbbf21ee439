package sinks

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// redisTimeseriesSink writes metrics to RedisTimeSeries via TS.CREATE/TS.ADD,
// grounded on outputs/redistimeseries.py. The source's RediSearch/dummy-key
// label-indexing fallback ladder is dropped — this agent has no query
// surface over the stored series, so an index that nothing reads is not
// worth carrying forward.
type redisTimeseriesSink struct {
	client    *redis.Client
	retention int64
	created   map[string]bool
	logger    *logrus.Logger
}

func newRedisTimeseriesSink(options map[string]interface{}, logger *logrus.Logger) (telemetry.Sink, error) {
	addr := fmt.Sprintf("%s:%d", stringOption(options, "host", "localhost"), intOption(options, "port", 6379))
	redisOpts := &redis.Options{
		Addr:     addr,
		DB:       intOption(options, "db", 0),
		Username: stringOption(options, "username", ""),
		Password: stringOption(options, "password", ""),
	}

	if boolOption(options, "tls", false) {
		tlsCfg, err := createTLSConfig(TLSConfig{
			Enabled:            true,
			CertFile:           stringOption(options, "tls_cert_file", ""),
			KeyFile:            stringOption(options, "tls_key_file", ""),
			CAFile:             stringOption(options, "tls_ca_file", ""),
			InsecureSkipVerify: boolOption(options, "tls_insecure_skip_verify", false),
		})
		if err != nil {
			return nil, fmt.Errorf("redis_timeseries sink: building TLS config: %w", err)
		}
		redisOpts.TLSConfig = tlsCfg
	}

	client := redis.NewClient(redisOpts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis_timeseries sink: connecting to %s: %w", addr, err)
	}

	return &redisTimeseriesSink{
		client:    client,
		retention: parseRetention(stringOption(options, "retention", "0")),
		created:   make(map[string]bool),
		logger:    logger,
	}, nil
}

func parseRetention(raw string) int64 {
	var multiplier int64 = 1
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasSuffix(raw, "d"):
		multiplier = 86400000
		raw = strings.TrimSuffix(raw, "d")
	case strings.HasSuffix(raw, "h"):
		multiplier = 3600000
		raw = strings.TrimSuffix(raw, "h")
	case strings.HasSuffix(raw, "y"):
		multiplier = 365 * 86400000
		raw = strings.TrimSuffix(raw, "y")
	}
	var value int64
	fmt.Sscanf(raw, "%d", &value)
	return value * multiplier
}

func (s *redisTimeseriesSink) Name() string { return "redis_timeseries" }

func (s *redisTimeseriesSink) Accepts() telemetry.Capability { return telemetry.CapabilityMetrics }

func (s *redisTimeseriesSink) Write(ctx context.Context, batch telemetry.Batch) error {
	if len(batch.Metrics) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, m := range batch.Metrics {
		if !s.created[m.Name] {
			args := []interface{}{"TS.CREATE", m.Name, "RETENTION", s.retention, "DUPLICATE_POLICY", "LAST", "LABELS"}
			for k, v := range m.Labels {
				args = append(args, k, v)
			}
			if err := s.client.Do(ctx, args...).Err(); err != nil && !strings.Contains(err.Error(), "already exists") {
				s.logger.WithError(err).WithField("key", m.Name).Warn("redis_timeseries sink failed to create series")
			}
			s.created[m.Name] = true
		}
		pipe.Do(ctx, "TS.ADD", m.Name, m.Timestamp, m.Value, "ON_DUPLICATE", "LAST")
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redis_timeseries sink: pipeline exec: %w", err)
	}
	return nil
}
