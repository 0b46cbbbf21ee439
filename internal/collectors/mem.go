package collectors

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// newMemCollector answers to both "linux_mem" and "macos_mem": gopsutil's
// mem.VirtualMemory is already cross-platform, so the platform-aliasing
// rule in spec.md §6 never needs to pick a different implementation here.
func newMemCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	hostname, _ := os.Hostname()

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return telemetry.Batch{}, err
			}

			labels := map[string]string{"source": "linux_mem", "host": hostname}
			fields := map[string]float64{
				"mem_total_bytes":     float64(vm.Total),
				"mem_used_bytes":      float64(vm.Used),
				"mem_available_bytes": float64(vm.Available),
				"mem_used_percent":    vm.UsedPercent,
				"mem_free_bytes":      float64(vm.Free),
				"mem_cached_bytes":    float64(vm.Cached),
			}

			var batch telemetry.Batch
			for name, value := range fields {
				m, err := telemetry.NewMetric(name, value, 0, labels)
				if err != nil {
					logger.WithError(err).Warn("mem collector produced an invalid metric")
					continue
				}
				batch.Metrics = append(batch.Metrics, m)
			}
			return batch, nil
		},
	}, nil
}
