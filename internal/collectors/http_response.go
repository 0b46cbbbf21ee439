package collectors

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"rtcollector/pkg/telemetry"
)

// newHTTPResponseCollector probes a configured URL once per cycle and
// reports its latency and status. A golang.org/x/time/rate limiter bounds
// how often the probe actually fires even if the engine's interval is
// shorter than "min_interval", mirroring the source's rate-limited probe.
func newHTTPResponseCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	url := stringOption(options, "url", "")
	method := stringOption(options, "method", "GET")
	timeout := time.Duration(intOption(options, "timeout", 5)) * time.Second
	minInterval := time.Duration(intOption(options, "min_interval", 0)) * time.Second
	hostname, _ := os.Hostname()

	var limiter *rate.Limiter
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}

	client := &http.Client{Timeout: timeout}

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			if limiter != nil && !limiter.Allow() {
				return telemetry.Batch{}, nil
			}

			req, err := http.NewRequestWithContext(ctx, method, url, nil)
			if err != nil {
				return telemetry.Batch{}, err
			}

			labels := map[string]string{"source": "http_response", "host": hostname, "url": url}
			start := time.Now()
			resp, err := client.Do(req)
			elapsed := time.Since(start).Seconds()

			var batch telemetry.Batch
			if err != nil {
				logger.WithError(err).WithField("url", url).Warn("http_response probe failed")
				upLabels := map[string]string{"source": "http_response", "host": hostname, "url": url}
				up, upErr := telemetry.NewMetric("http_response_up", 0, 0, upLabels)
				if upErr == nil {
					batch.Metrics = append(batch.Metrics, up)
				}
				return batch, nil
			}
			defer resp.Body.Close()
			io.Copy(io.Discard, resp.Body)

			statusLabels := map[string]string{"source": "http_response", "host": hostname, "url": url}
			rt, err := telemetry.NewMetric("http_response_response_time", elapsed, 0, labels)
			if err == nil {
				batch.Metrics = append(batch.Metrics, rt)
			}
			code, err := telemetry.NewMetric("http_response_status_code", float64(resp.StatusCode), 0, statusLabels)
			if err == nil {
				batch.Metrics = append(batch.Metrics, code)
			}
			up := 0.0
			if resp.StatusCode < 400 {
				up = 1
			}
			upMetric, err := telemetry.NewMetric("http_response_up", up, 0, statusLabels)
			if err == nil {
				batch.Metrics = append(batch.Metrics, upMetric)
			}
			return batch, nil
		},
	}, nil
}
