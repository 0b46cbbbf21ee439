package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// stdoutSink dumps each flushed batch as indented JSON to stdout when
// explicitly configured as an output, giving a way to see exactly what a
// cycle delivered without standing up a real backend. It fires only on a
// flush, independent of --debug; the --debug per-metric dump that main.py's
// --once path performs before a flush lives in internal/app's dumpBatch,
// fed from the engine's pre-flush hook.
type stdoutSink struct {
	out    io.Writer
	logger *logrus.Logger
}

func newStdoutSink(options map[string]interface{}, logger *logrus.Logger) (telemetry.Sink, error) {
	return &stdoutSink{out: os.Stdout, logger: logger}, nil
}

func (s *stdoutSink) Name() string { return "stdout" }

func (s *stdoutSink) Accepts() telemetry.Capability {
	return telemetry.CapabilityMetrics | telemetry.CapabilityLogs
}

func (s *stdoutSink) Write(ctx context.Context, batch telemetry.Batch) error {
	encoder := json.NewEncoder(s.out)
	encoder.SetIndent("", "  ")
	for _, m := range batch.Metrics {
		if err := encoder.Encode(map[string]interface{}{"type": "metric", "metric": m}); err != nil {
			return fmt.Errorf("stdout sink: encoding metric: %w", err)
		}
	}
	for _, l := range batch.Logs {
		if err := encoder.Encode(map[string]interface{}{"type": "log", "log": l}); err != nil {
			return fmt.Errorf("stdout sink: encoding log: %w", err)
		}
	}
	return nil
}
