package collectors

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// newExecCollector runs a configured list of shell commands each cycle and
// interprets their stdout either as a JSON object of metric names to
// numeric values, or as whitespace-separated "name value [tag=val ...]"
// lines ("metrics" format). Grounded on inputs/exec.py, which supports the
// same two output formats plus a plain-text fallback.
//
// No subprocess execution library appears anywhere in the example pack, so
// this collector uses os/exec directly (documented in DESIGN.md).
func newExecCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	commands := stringSliceOption(options, "commands")
	timeout := time.Duration(intOption(options, "timeout", 5)) * time.Second
	dataFormat := stringOption(options, "data_format", "json")
	ignoreError := boolOption(options, "ignore_error", false)
	workingDir := stringOption(options, "working_dir", "")
	hostname, _ := os.Hostname()

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			var batch telemetry.Batch
			for _, cmdline := range commands {
				batch = batch.Append(runOneCommand(ctx, cmdline, timeout, dataFormat, ignoreError, workingDir, hostname, logger))
			}
			return batch, nil
		},
	}, nil
}

func runOneCommand(ctx context.Context, cmdline string, timeout time.Duration, dataFormat string, ignoreError bool, workingDir, hostname string, logger *logrus.Logger) telemetry.Batch {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, "sh", "-c", cmdline)
	if workingDir != "" {
		cmd.Dir = workingDir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		if runCtx.Err() == context.DeadlineExceeded {
			status = "timeout"
		}
	}

	execLabels := map[string]string{"source": "exec", "cmd": cmdline, "status": status, "host": hostname}
	execMetric, metricErr := telemetry.NewMetric("exec_execution_time", elapsed, 0, execLabels)
	var batch telemetry.Batch
	if metricErr == nil {
		batch.Metrics = append(batch.Metrics, execMetric)
	}

	if err != nil && !ignoreError {
		logger.WithError(err).WithField("cmd", cmdline).Warn("exec collector command failed")
		record, recErr := telemetry.NewLogRecord(
			"command "+cmdline+" failed: "+err.Error()+": "+stderr.String(),
			telemetry.LevelError,
			0,
			map[string]string{"source": "exec", "cmd": cmdline},
			nil,
		)
		if recErr == nil {
			batch.Logs = append(batch.Logs, record)
		}
		return batch
	}

	switch dataFormat {
	case "json":
		batch = batch.Append(parseJSONOutput(stdout.Bytes(), cmdline, hostname))
	case "metrics":
		batch = batch.Append(parseMetricsOutput(stdout.String(), cmdline, hostname))
	default:
		if stdout.Len() > 0 {
			record, recErr := telemetry.NewLogRecord(stdout.String(), telemetry.LevelInfo, 0, map[string]string{"source": "exec", "cmd": cmdline}, nil)
			if recErr == nil {
				batch.Logs = append(batch.Logs, record)
			}
		}
	}

	return batch
}

func parseJSONOutput(stdout []byte, cmdline, hostname string) telemetry.Batch {
	var parsed map[string]interface{}
	if err := json.Unmarshal(stdout, &parsed); err != nil {
		return telemetry.Batch{}
	}

	labels := map[string]string{"source": "exec", "cmd": cmdline, "host": hostname}
	var batch telemetry.Batch
	for name, raw := range parsed {
		value, ok := toFloat(raw)
		if !ok {
			continue
		}
		m, err := telemetry.NewMetric(name, value, 0, labels)
		if err != nil {
			continue
		}
		batch.Metrics = append(batch.Metrics, m)
	}
	return batch
}

func parseMetricsOutput(stdout, cmdline, hostname string) telemetry.Batch {
	var batch telemetry.Batch
	for _, line := range strings.Split(stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		labels := map[string]string{"source": "exec", "cmd": cmdline, "host": hostname}
		for _, tag := range fields[2:] {
			kv := strings.SplitN(tag, "=", 2)
			if len(kv) == 2 {
				labels[kv[0]] = kv[1]
			}
		}
		m, err := telemetry.NewMetric(fields[0], value, 0, labels)
		if err != nil {
			continue
		}
		batch.Metrics = append(batch.Metrics, m)
	}
	return batch
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case []byte:
		parsed, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
