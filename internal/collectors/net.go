package collectors

import (
	"context"
	"os"
	"time"

	gonet "github.com/shirou/gopsutil/v3/net"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/rate"
	"rtcollector/pkg/telemetry"
)

// newNetCollector reports per-interface counters, answering to both
// "linux_net" and "macos_net". Alongside the raw cumulative counters it
// derives bytes/sec and packets/sec using component C2's rate helper,
// since a cumulative counter alone forces every downstream sink to
// recompute the same derivative.
func newNetCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	interfaces := stringSliceOption(options, "interfaces")
	wanted := make(map[string]bool, len(interfaces))
	for _, iface := range interfaces {
		wanted[iface] = true
	}
	hostname, _ := os.Hostname()
	rates := rate.NewHelper()

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			counters, err := gonet.IOCountersWithContext(ctx, true)
			if err != nil {
				return telemetry.Batch{}, err
			}

			now := time.Now().UnixMilli()
			var batch telemetry.Batch
			for _, c := range counters {
				if len(wanted) > 0 && !wanted[c.Name] {
					continue
				}
				labels := map[string]string{"source": "linux_net", "host": hostname, "interface": c.Name}
				fields := map[string]float64{
					"net_bytes_sent":   float64(c.BytesSent),
					"net_bytes_recv":   float64(c.BytesRecv),
					"net_packets_sent": float64(c.PacketsSent),
					"net_packets_recv": float64(c.PacketsRecv),
					"net_errin":        float64(c.Errin),
					"net_errout":       float64(c.Errout),
					"net_dropin":       float64(c.Dropin),
					"net_dropout":      float64(c.Dropout),
				}
				for name, value := range fields {
					m, err := telemetry.NewMetric(name, value, 0, labels)
					if err != nil {
						continue
					}
					batch.Metrics = append(batch.Metrics, m)
				}

				for _, rateField := range []string{"net_bytes_sent", "net_bytes_recv", "net_packets_sent", "net_packets_recv"} {
					key := rate.ComposeKey(rateField, labels)
					if perSecond, ok := rates.Rate(key, fields[rateField], now, nil); ok {
						m, err := telemetry.NewMetric(rateField+"_per_second", perSecond, now, labels)
						if err == nil {
							batch.Metrics = append(batch.Metrics, m)
						}
					}
				}
			}
			return batch, nil
		},
	}, nil
}
