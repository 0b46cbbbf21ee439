package collectors

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// newDiskCollector reports usage for every mountpoint configured in
// "mountpoints" (default "/"), answering to both "linux_disk" and
// "macos_disk".
func newDiskCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	mountpoints := stringSliceOption(options, "mountpoints")
	if len(mountpoints) == 0 {
		mountpoints = []string{"/"}
	}
	hostname, _ := os.Hostname()

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			var batch telemetry.Batch
			for _, mp := range mountpoints {
				usage, err := disk.UsageWithContext(ctx, mp)
				if err != nil {
					logger.WithError(err).WithField("mountpoint", mp).Warn("disk collector failed to read mountpoint")
					continue
				}
				labels := map[string]string{"source": "linux_disk", "host": hostname, "mountpoint": mp}
				fields := map[string]float64{
					"disk_total_bytes":   float64(usage.Total),
					"disk_used_bytes":    float64(usage.Used),
					"disk_free_bytes":    float64(usage.Free),
					"disk_used_percent":  usage.UsedPercent,
					"disk_inodes_total":  float64(usage.InodesTotal),
					"disk_inodes_used":   float64(usage.InodesUsed),
				}
				for name, value := range fields {
					m, err := telemetry.NewMetric(name, value, 0, labels)
					if err != nil {
						continue
					}
					batch.Metrics = append(batch.Metrics, m)
				}
			}
			return batch, nil
		},
	}, nil
}
