package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// LegacyTuple models the source's two-element-tuple collector return shape:
// (metrics_seq, logs_seq).
type LegacyTuple struct {
	Metrics []telemetry.Metric
	Logs    []telemetry.LogRecord
}

// normalize accepts any of the three legacy shapes the Python original's
// collectors could return (§4.3) and produces the single canonical Batch
// shape new collectors return directly. Items that are neither metric- nor
// log-shaped are dropped with a warning log line, never silently.
//
//  1. map[string]interface{} with "<name>_metrics" / "<name>_logs" keys
//  2. LegacyTuple{Metrics, Logs}
//  3. []interface{} flat sequence, classified per item
func normalize(logger *logrus.Logger, collectorName string, raw interface{}) telemetry.Batch {
	switch v := raw.(type) {
	case telemetry.Batch:
		return v
	case LegacyTuple:
		return telemetry.Batch{Metrics: v.Metrics, Logs: v.Logs}
	case map[string]interface{}:
		return normalizeMap(collectorName, v)
	case []interface{}:
		return normalizeFlatSequence(logger, collectorName, v)
	case nil:
		return telemetry.Batch{}
	default:
		logger.WithFields(logrus.Fields{"collector": collectorName, "type": fmt.Sprintf("%T", raw)}).
			Warn("collector returned an unrecognized shape; dropping")
		return telemetry.Batch{}
	}
}

func normalizeMap(collectorName string, m map[string]interface{}) telemetry.Batch {
	var batch telemetry.Batch

	metricsKey := collectorName + "_metrics"
	logsKey := collectorName + "_logs"

	if raw, ok := m[metricsKey]; ok {
		if metrics, ok := raw.([]telemetry.Metric); ok {
			batch.Metrics = append(batch.Metrics, metrics...)
		}
	}
	if raw, ok := m[logsKey]; ok {
		if logs, ok := raw.([]telemetry.LogRecord); ok {
			batch.Logs = append(batch.Logs, logs...)
		}
	}
	return batch
}

func normalizeFlatSequence(logger *logrus.Logger, collectorName string, items []interface{}) telemetry.Batch {
	var batch telemetry.Batch
	for _, item := range items {
		switch v := item.(type) {
		case telemetry.Metric:
			batch.Metrics = append(batch.Metrics, v)
		case telemetry.LogRecord:
			batch.Logs = append(batch.Logs, v)
		case map[string]interface{}:
			batch.Logs = append(batch.Logs, logRecordFromMap(v))
		default:
			logger.WithFields(logrus.Fields{
				"collector": collectorName,
				"type":      fmt.Sprintf("%T", item),
			}).Warn("dropping unclassifiable collector item")
		}
	}
	return batch
}

func logRecordFromMap(m map[string]interface{}) telemetry.LogRecord {
	message, _ := m["message"].(string)
	level, _ := m["level"].(string)
	var timestamp int64
	if ts, ok := m["timestamp"].(int64); ok {
		timestamp = ts
	}
	tags := map[string]string{}
	if raw, ok := m["tags"].(map[string]string); ok {
		tags = raw
	}
	record, err := telemetry.NewLogRecord(orDefault(message, "(no message)"), telemetry.LogLevel(level), timestamp, tags, nil)
	if err != nil {
		// A malformed map-shaped item still yields a log record rather than
		// being silently dropped, per §4.3 ("other maps are treated as logs").
		record, _ = telemetry.NewLogRecord(orDefault(message, "(no message)"), telemetry.LevelInfo, 0, tags, nil)
	}
	return record
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
