package sinks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKafkaSinkRequiresBrokers(t *testing.T) {
	_, err := newKafkaSink(map[string]interface{}{"topic": "telemetry"}, testLogger())
	assert.ErrorContains(t, err, "no brokers configured")
}

func TestNewKafkaSinkRequiresTopic(t *testing.T) {
	_, err := newKafkaSink(map[string]interface{}{
		"brokers": []interface{}{"127.0.0.1:9092"},
	}, testLogger())
	assert.ErrorContains(t, err, "no topic configured")
}
