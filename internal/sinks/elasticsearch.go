package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// elasticsearchSink bulk-indexes metrics and logs as JSON documents,
// grounded on the teacher's elasticsearch_sink.go bulk-indexing shape
// (adapted to the go-elasticsearch/v7 client already in the dependency
// set) and the source's *_exporter convention of one index per day.
type elasticsearchSink struct {
	client      *elasticsearch.Client
	indexPrefix string
	logger      *logrus.Logger
}

func newElasticsearchSink(options map[string]interface{}, logger *logrus.Logger) (telemetry.Sink, error) {
	hosts := stringSliceOption(options, "hosts")
	if len(hosts) == 0 {
		hosts = []string{"http://localhost:9200"}
	}

	esCfg := elasticsearch.Config{
		Addresses: hosts,
		Username:  stringOption(options, "username", ""),
		Password:  stringOption(options, "password", ""),
	}

	if boolOption(options, "tls", false) {
		tlsCfg, err := createTLSConfig(TLSConfig{
			Enabled:            true,
			CertFile:           stringOption(options, "tls_cert_file", ""),
			KeyFile:            stringOption(options, "tls_key_file", ""),
			CAFile:             stringOption(options, "tls_ca_file", ""),
			InsecureSkipVerify: boolOption(options, "tls_insecure_skip_verify", false),
		})
		if err != nil {
			return nil, fmt.Errorf("elasticsearch sink: building TLS config: %w", err)
		}
		esCfg.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch sink: creating client: %w", err)
	}

	return &elasticsearchSink{
		client:      client,
		indexPrefix: stringOption(options, "index_prefix", "rtcollector"),
		logger:      logger,
	}, nil
}

func (s *elasticsearchSink) Name() string { return "elasticsearch" }

func (s *elasticsearchSink) Accepts() telemetry.Capability {
	return telemetry.CapabilityMetrics | telemetry.CapabilityLogs
}

func (s *elasticsearchSink) Write(ctx context.Context, batch telemetry.Batch) error {
	if len(batch.Metrics) == 0 && len(batch.Logs) == 0 {
		return nil
	}

	index := fmt.Sprintf("%s-%s", s.indexPrefix, time.Now().UTC().Format("2006.01.02"))

	var buf bytes.Buffer
	for _, m := range batch.Metrics {
		writeBulkAction(&buf, index)
		doc := map[string]interface{}{
			"@timestamp": time.UnixMilli(m.Timestamp).UTC(),
			"type":       "metric",
			"name":       m.Name,
			"value":      m.Value,
			"labels":     m.Labels,
		}
		encodeBulkDoc(&buf, doc)
	}
	for _, l := range batch.Logs {
		writeBulkAction(&buf, index)
		doc := map[string]interface{}{
			"@timestamp": time.UnixMilli(l.Timestamp).UTC(),
			"type":       "log",
			"message":    l.Message,
			"level":      l.Level,
			"tags":       l.Tags,
		}
		encodeBulkDoc(&buf, doc)
	}

	req := esapi.BulkRequest{Body: bytes.NewReader(buf.Bytes())}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("elasticsearch sink: bulk request: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("elasticsearch sink: bulk request returned status %s", resp.Status())
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.Errors {
		s.logger.Warn("elasticsearch sink: bulk request reported partial item failures")
	}
	return nil
}

func writeBulkAction(buf *bytes.Buffer, index string) {
	action := map[string]interface{}{"index": map[string]interface{}{"_index": index}}
	_ = json.NewEncoder(buf).Encode(action)
}

func encodeBulkDoc(buf *bytes.Buffer, doc map[string]interface{}) {
	_ = json.NewEncoder(buf).Encode(doc)
}
