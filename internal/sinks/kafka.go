package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// kafkaSink implements telemetry.Sink over a synchronous sarama producer.
// Grounded on the teacher's internal/sinks/kafka_sink.go for its Sarama
// config construction (compression, SASL/SCRAM, partitioner selection);
// the teacher's own internal queue/batch/circuit-breaker/DLQ machinery is
// dropped because internal/router already serializes writes per sink and
// internal/buffer already owns backpressure (drop-oldest), so this sink
// only needs to turn one Write call into one synchronous produce call.
type kafkaSink struct {
	topic    string
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func newKafkaSink(options map[string]interface{}, logger *logrus.Logger) (telemetry.Sink, error) {
	brokers := stringSliceOption(options, "brokers")
	topic := stringOption(options, "topic", "")
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka sink: no topic configured")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	switch strings.ToLower(stringOption(options, "compression", "")) {
	case "gzip":
		cfg.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		cfg.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		cfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		cfg.Producer.Compression = sarama.CompressionZSTD
	default:
		cfg.Producer.Compression = sarama.CompressionNone
	}

	switch strings.ToLower(stringOption(options, "partitioner", "hash")) {
	case "round-robin":
		cfg.Producer.Partitioner = sarama.NewRoundRobinPartitioner
	case "random":
		cfg.Producer.Partitioner = sarama.NewRandomPartitioner
	default:
		cfg.Producer.Partitioner = sarama.NewHashPartitioner
	}

	if username := stringOption(options, "sasl_username", ""); username != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.User = username
		cfg.Net.SASL.Password = stringOption(options, "sasl_password", "")
		switch strings.ToUpper(stringOption(options, "sasl_mechanism", "PLAIN")) {
		case "SCRAM-SHA-256":
			cfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
			cfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &XDGSCRAMClient{HashGeneratorFcn: SHA256}
			}
		case "SCRAM-SHA-512":
			cfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
			cfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &XDGSCRAMClient{HashGeneratorFcn: SHA512}
			}
		default:
			cfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		}
	}

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka sink: creating producer: %w", err)
	}

	logger.WithFields(logrus.Fields{"brokers": brokers, "topic": topic}).Info("kafka sink initialized")
	return &kafkaSink{topic: topic, producer: producer, logger: logger}, nil
}

func (k *kafkaSink) Name() string { return "kafka" }

func (k *kafkaSink) Accepts() telemetry.Capability {
	return telemetry.CapabilityMetrics | telemetry.CapabilityLogs
}

func (k *kafkaSink) Write(ctx context.Context, batch telemetry.Batch) error {
	var lastErr error
	for _, m := range batch.Metrics {
		if err := k.publish(m.Name, m); err != nil {
			lastErr = err
		}
	}
	for _, l := range batch.Logs {
		if err := k.publish("log", l); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (k *kafkaSink) publish(key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("kafka sink: marshaling payload: %w", err)
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		k.logger.WithError(err).WithField("topic", k.topic).Error("kafka sink failed to produce message")
	}
	return err
}
