package collectors

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// newInternalStatsCollector reports the agent's own resource usage,
// grounded on inputs/internal.py's process and GC stats. Process CPU/memory
// figures come from gopsutil/v3/process (the same library the system
// collectors use) rather than a second dependency; runtime.MemStats and
// runtime.NumGoroutine have no third-party equivalent in the example pack —
// they expose Go-runtime-internal counters no external library can read,
// so this one piece stays on the standard library (documented in
// DESIGN.md).
func newInternalStatsCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	hostname, _ := os.Hostname()
	pid := int32(os.Getpid())

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)

			labels := map[string]string{"source": "internal_stats", "host": hostname}
			fields := map[string]float64{
				"internal_memstats_heap_alloc_bytes": float64(memStats.HeapAlloc),
				"internal_memstats_sys_bytes":        float64(memStats.Sys),
				"internal_memstats_num_gc":           float64(memStats.NumGC),
				"internal_agent_goroutines":          float64(runtime.NumGoroutine()),
			}

			var batch telemetry.Batch
			for name, value := range fields {
				if m, err := telemetry.NewMetric(name, value, 0, labels); err == nil {
					batch.Metrics = append(batch.Metrics, m)
				}
			}

			proc, err := process.NewProcessWithContext(ctx, pid)
			if err != nil {
				logger.WithError(err).Warn("internal_stats collector failed to open self process handle")
				return batch, nil
			}
			if cpuPercent, err := proc.CPUPercentWithContext(ctx); err == nil {
				if m, err := telemetry.NewMetric("internal_process_cpu_percent", cpuPercent, 0, labels); err == nil {
					batch.Metrics = append(batch.Metrics, m)
				}
			}
			if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil {
				if m, err := telemetry.NewMetric("internal_process_virtual_memory_bytes", float64(memInfo.VMS), 0, labels); err == nil {
					batch.Metrics = append(batch.Metrics, m)
				}
				if m, err := telemetry.NewMetric("internal_process_resident_memory_bytes", float64(memInfo.RSS), 0, labels); err == nil {
					batch.Metrics = append(batch.Metrics, m)
				}
			}

			return batch, nil
		},
	}, nil
}
