package sinks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTLSConfigInsecureSkipVerify(t *testing.T) {
	cfg, err := createTLSConfig(TLSConfig{Enabled: true, InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
}

func TestCreateTLSConfigRejectsMissingCAFile(t *testing.T) {
	_, err := createTLSConfig(TLSConfig{Enabled: true, CAFile: "/nonexistent/ca.pem"})
	assert.Error(t, err)
}

func TestNewElasticsearchSinkRejectsBadTLSCertPair(t *testing.T) {
	_, err := newElasticsearchSink(map[string]interface{}{
		"tls":           true,
		"tls_cert_file": "/nonexistent/cert.pem",
		"tls_key_file":  "/nonexistent/key.pem",
	}, testLogger())
	assert.Error(t, err)
}
