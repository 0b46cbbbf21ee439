package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// s3ArchiveSink writes each flushed batch as one newline-delimited-JSON
// object to S3, supplemented into the output catalog from the
// ClusterCockpit example repo's AWS SDK usage: batch archival to object
// storage, something the source never had since it only ever shipped to
// time-series/search backends.
type s3ArchiveSink struct {
	client *s3.Client
	bucket string
	prefix string
	logger *logrus.Logger
}

func newS3ArchiveSink(options map[string]interface{}, logger *logrus.Logger) (telemetry.Sink, error) {
	bucket := stringOption(options, "bucket", "")
	if bucket == "" {
		return nil, fmt.Errorf("s3_archive sink: 'bucket' is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(stringOption(options, "region", "us-east-1")))
	if err != nil {
		return nil, fmt.Errorf("s3_archive sink: loading AWS config: %w", err)
	}

	return &s3ArchiveSink{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: stringOption(options, "prefix", "rtcollector"),
		logger: logger,
	}, nil
}

func (s *s3ArchiveSink) Name() string { return "s3_archive" }

func (s *s3ArchiveSink) Accepts() telemetry.Capability {
	return telemetry.CapabilityMetrics | telemetry.CapabilityLogs
}

func (s *s3ArchiveSink) Write(ctx context.Context, batch telemetry.Batch) error {
	if len(batch.Metrics) == 0 && len(batch.Logs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, m := range batch.Metrics {
		if err := encoder.Encode(map[string]interface{}{"type": "metric", "metric": m}); err != nil {
			return fmt.Errorf("s3_archive sink: encoding metric: %w", err)
		}
	}
	for _, l := range batch.Logs {
		if err := encoder.Encode(map[string]interface{}{"type": "log", "log": l}); err != nil {
			return fmt.Errorf("s3_archive sink: encoding log: %w", err)
		}
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/%s/%d.jsonl", s.prefix, now.Format("2006/01/02"), now.UnixNano())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("s3_archive sink failed to upload batch")
		return fmt.Errorf("s3_archive sink: uploading %s: %w", key, err)
	}
	return nil
}
