package sinks

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// localFileSink appends newline-delimited JSON to a rotating file,
// grounded on the teacher's internal/sinks/local_file_sink.go. The
// teacher's queue/worker-pool/disk-space-watchdog machinery is dropped:
// internal/router already calls Write synchronously and serially per sink,
// so there is nothing left to queue; rotation by size is kept since it is
// the one piece of teacher behavior a single append-only writer still
// needs.
type localFileSink struct {
	dir         string
	filePattern string
	maxBytes    int64
	compress    bool

	mu     sync.Mutex
	file   *os.File
	size   int64
	logger *logrus.Logger
}

func newLocalFileSink(options map[string]interface{}, logger *logrus.Logger) (telemetry.Sink, error) {
	dir := stringOption(options, "directory", "./rtcollector-data")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local_file sink: creating directory %s: %w", dir, err)
	}

	sink := &localFileSink{
		dir:         dir,
		filePattern: stringOption(options, "file_pattern", "telemetry"),
		maxBytes:    int64(intOption(options, "max_file_bytes", 100*1024*1024)),
		compress:    boolOption(options, "compress", false),
		logger:      logger,
	}
	if err := sink.rotate(); err != nil {
		return nil, err
	}
	return sink, nil
}

func (s *localFileSink) Name() string { return "local_file" }

func (s *localFileSink) Accepts() telemetry.Capability {
	return telemetry.CapabilityMetrics | telemetry.CapabilityLogs
}

func (s *localFileSink) Write(ctx context.Context, batch telemetry.Batch) error {
	if len(batch.Metrics) == 0 && len(batch.Logs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encoder := json.NewEncoder(s.file)
	for _, m := range batch.Metrics {
		if err := encoder.Encode(map[string]interface{}{"type": "metric", "metric": m}); err != nil {
			return fmt.Errorf("local_file sink: encoding metric: %w", err)
		}
	}
	for _, l := range batch.Logs {
		if err := encoder.Encode(map[string]interface{}{"type": "log", "log": l}); err != nil {
			return fmt.Errorf("local_file sink: encoding log: %w", err)
		}
	}

	if info, err := s.file.Stat(); err == nil {
		s.size = info.Size()
	}
	if s.size >= s.maxBytes {
		if err := s.rotate(); err != nil {
			s.logger.WithError(err).Warn("local_file sink failed to rotate")
		}
	}
	return nil
}

func (s *localFileSink) rotate() error {
	if s.file != nil {
		path := s.file.Name()
		s.file.Close()
		if s.compress {
			if err := gzipFile(path); err != nil {
				s.logger.WithError(err).WithField("path", path).Warn("local_file sink failed to compress rotated file")
			}
		}
	}

	name := fmt.Sprintf("%s-%s.jsonl", s.filePattern, time.Now().UTC().Format("20060102T150405.000000000"))
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("local_file sink: opening %s: %w", path, err)
	}
	s.file = f
	s.size = 0
	return nil
}

func gzipFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := gw.Write(raw); err != nil {
		gw.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
