package collectors

import (
	"context"
	"os"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// newCPUCollector is grounded on inputs/linux_cpu.py's per-core delta
// calculation, recomputed here via gopsutil/cpu.Percent instead of a
// hand-rolled /proc/stat diff — gopsutil already does the same delta math
// cross-platform, which is why this single factory also answers to
// "macos_cpu" (spec.md §6 platform aliasing).
func newCPUCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	perCore := boolOption(options, "per_core", true)
	hostname, _ := os.Hostname()

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			percents, err := cpu.PercentWithContext(ctx, 0, perCore)
			if err != nil {
				return telemetry.Batch{}, err
			}

			var batch telemetry.Batch
			for i, pct := range percents {
				core := "cpu-total"
				if perCore {
					core = coreLabel(i)
				}
				m, err := telemetry.NewMetric("cpu_usage_active", pct, 0, map[string]string{
					"source": "linux_cpu",
					"core":   core,
					"host":   hostname,
				})
				if err != nil {
					logger.WithError(err).Warn("cpu collector produced an invalid metric")
					continue
				}
				batch.Metrics = append(batch.Metrics, m)
			}
			return batch, nil
		},
	}, nil
}

func coreLabel(i int) string {
	if i == 0 {
		return "cpu-total"
	}
	return "cpu" + strconv.Itoa(i-1)
}

func boolOption(options map[string]interface{}, key string, fallback bool) bool {
	if v, ok := options[key].(bool); ok {
		return v
	}
	return fallback
}
