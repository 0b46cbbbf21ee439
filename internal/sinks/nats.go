package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// natsSink publishes one NATS message per metric/log record, supplemented
// into the output catalog from the ClusterCockpit example repo's NATS
// usage: a lightweight fan-out the Python original never shipped.
type natsSink struct {
	conn    *nats.Conn
	subject string
	logger  *logrus.Logger
}

func newNATSSink(options map[string]interface{}, logger *logrus.Logger) (telemetry.Sink, error) {
	url := stringOption(options, "url", nats.DefaultURL)
	subject := stringOption(options, "subject", "rtcollector.telemetry")

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats sink: connecting to %s: %w", url, err)
	}

	return &natsSink{conn: conn, subject: subject, logger: logger}, nil
}

func (s *natsSink) Name() string { return "nats" }

func (s *natsSink) Accepts() telemetry.Capability {
	return telemetry.CapabilityMetrics | telemetry.CapabilityLogs
}

func (s *natsSink) Write(ctx context.Context, batch telemetry.Batch) error {
	var lastErr error
	for _, m := range batch.Metrics {
		if err := s.publish(map[string]interface{}{"type": "metric", "metric": m}); err != nil {
			lastErr = err
		}
	}
	for _, l := range batch.Logs {
		if err := s.publish(map[string]interface{}{"type": "log", "log": l}); err != nil {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = s.conn.FlushTimeout(5 * time.Second)
	}
	return lastErr
}

func (s *natsSink) publish(payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("nats sink: marshaling payload: %w", err)
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		s.logger.WithError(err).WithField("subject", s.subject).Error("nats sink failed to publish")
		return err
	}
	return nil
}
