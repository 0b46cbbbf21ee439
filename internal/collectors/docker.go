package collectors

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// newDockerCollector reports per-container CPU/memory/network stats and
// engine-wide container/image counts, grounded on inputs/docker.py's use of
// the Docker Engine API. Unlike the source's raw Unix-socket HTTP client,
// this uses the example pack's github.com/docker/docker/client SDK.
func newDockerCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	endpoint := stringOption(options, "endpoint", client.DefaultDockerHost)
	include := stringSliceOption(options, "container_name_include")
	exclude := stringSliceOption(options, "container_name_exclude")
	collectEngineMetrics := boolOption(options, "collect_engine_metrics", true)
	hostname, _ := os.Hostname()

	cli, err := client.NewClientWithOpts(client.WithHost(endpoint), client.WithAPIVersionNegotiation())
	if err != nil {
		return telemetry.CollectorDescriptor{}, err
	}

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			var batch telemetry.Batch

			version, verErr := cli.ServerVersion(ctx)
			serverVersion := "unknown"
			if verErr == nil {
				serverVersion = version.Version
			}

			containers, err := cli.ContainerList(ctx, types.ContainerListOptions{})
			if err != nil {
				logger.WithError(err).Warn("docker collector failed to list containers")
			}

			for _, c := range containers {
				name := strings.TrimPrefix(firstOrDefault(c.Names, "unknown"), "/")
				if !passesNameFilter(name, include, exclude) {
					continue
				}
				batch = batch.Append(containerMetrics(ctx, cli, c.ID, name, c.Image, c.State, hostname, serverVersion, logger))
			}

			if collectEngineMetrics {
				batch = batch.Append(engineMetrics(ctx, cli, hostname, serverVersion, logger))
			}

			return batch, nil
		},
	}, nil
}

func firstOrDefault(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return items[0]
}

func passesNameFilter(name string, include, exclude []string) bool {
	if len(include) > 0 {
		matched := false
		for _, pattern := range include {
			if strings.Contains(name, pattern) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pattern := range exclude {
		if strings.Contains(name, pattern) {
			return false
		}
	}
	return true
}

func containerMetrics(ctx context.Context, cli *client.Client, containerID, name, image, state, hostname, serverVersion string, logger *logrus.Logger) telemetry.Batch {
	resp, err := cli.ContainerStats(ctx, containerID, false)
	if err != nil {
		logger.WithError(err).WithField("container", name).Warn("docker collector failed to read container stats")
		return telemetry.Batch{}
	}
	defer resp.Body.Close()

	var stats types.StatsJSON
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		logger.WithError(err).WithField("container", name).Warn("docker collector failed to decode container stats")
		return telemetry.Batch{}
	}

	shortID := containerID
	if len(shortID) > 12 {
		shortID = shortID[:12]
	}
	labels := map[string]string{
		"source":           "docker",
		"engine_host":      hostname,
		"server_version":   serverVersion,
		"container_image":  image,
		"container_name":   name,
		"container_status": state,
		"container_id":     shortID,
	}

	var batch telemetry.Batch
	cpuPercent := dockerCPUPercent(stats)
	if m, err := telemetry.NewMetric("docker_cpu_percent", cpuPercent, 0, labels); err == nil {
		batch.Metrics = append(batch.Metrics, m)
	}

	memUsage := float64(stats.MemoryStats.Usage)
	memLimit := float64(stats.MemoryStats.Limit)
	memPercent := 0.0
	if memLimit > 0 {
		memPercent = (memUsage / memLimit) * 100.0
	}
	for name, value := range map[string]float64{
		"docker_mem_usage":   memUsage,
		"docker_mem_limit":   memLimit,
		"docker_mem_percent": memPercent,
	} {
		if m, err := telemetry.NewMetric(name, value, 0, labels); err == nil {
			batch.Metrics = append(batch.Metrics, m)
		}
	}

	for iface, net := range stats.Networks {
		netLabels := copyMap(labels)
		netLabels["interface"] = iface
		for name, value := range map[string]float64{
			"docker_net_rx_bytes": float64(net.RxBytes),
			"docker_net_tx_bytes": float64(net.TxBytes),
		} {
			if m, err := telemetry.NewMetric(name, value, 0, netLabels); err == nil {
				batch.Metrics = append(batch.Metrics, m)
			}
		}
	}

	return batch
}

func dockerCPUPercent(stats types.StatsJSON) float64 {
	cpuDelta := float64(stats.CPUStats.CPUUsage.TotalUsage) - float64(stats.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(stats.CPUStats.SystemUsage) - float64(stats.PreCPUStats.SystemUsage)
	onlineCPUs := stats.CPUStats.OnlineCPUs
	if onlineCPUs == 0 {
		onlineCPUs = uint32(len(stats.CPUStats.CPUUsage.PercpuUsage))
	}
	if onlineCPUs == 0 {
		onlineCPUs = 1
	}
	if systemDelta > 0 && cpuDelta > 0 {
		return (cpuDelta / systemDelta) * float64(onlineCPUs) * 100.0
	}
	return 0
}

func engineMetrics(ctx context.Context, cli *client.Client, hostname, serverVersion string, logger *logrus.Logger) telemetry.Batch {
	info, err := cli.Info(ctx)
	if err != nil {
		logger.WithError(err).Warn("docker collector failed to read engine info")
		return telemetry.Batch{}
	}

	labels := map[string]string{"source": "docker", "engine_host": hostname, "server_version": serverVersion}
	fields := map[string]float64{
		"docker_engine_containers":         float64(info.Containers),
		"docker_engine_containers_running": float64(info.ContainersRunning),
		"docker_engine_containers_paused":  float64(info.ContainersPaused),
		"docker_engine_containers_stopped": float64(info.ContainersStopped),
		"docker_engine_images":             float64(info.Images),
	}

	var batch telemetry.Batch
	for name, value := range fields {
		if m, err := telemetry.NewMetric(name, value, 0, labels); err == nil {
			batch.Metrics = append(batch.Metrics, m)
		}
	}
	return batch
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
