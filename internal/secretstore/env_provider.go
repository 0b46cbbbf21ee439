package secretstore

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// EnvProvider resolves secrets from environment variables under a
// configurable prefix (default "SECRET_"), matching
// secrets/env_provider.py: the identifier is upper-cased and "/" / "-" are
// replaced with "_" before the prefix is applied.
type EnvProvider struct {
	prefix string
}

// NewEnvProvider returns an EnvProvider using prefix, or "SECRET_" if empty.
func NewEnvProvider(prefix string) *EnvProvider {
	if prefix == "" {
		prefix = "SECRET_"
	}
	return &EnvProvider{prefix: prefix}
}

// GetSecret implements Provider.
func (p *EnvProvider) GetSecret(id string) (string, bool) {
	envVar := p.prefix + strings.NewReplacer("/", "_", "-", "_").Replace(strings.ToUpper(id))
	value, ok := os.LookupEnv(envVar)
	return value, ok
}

// LoadDotEnv seeds the process environment from a .env file before an
// EnvProvider is constructed, for operators who prefer a file over
// exported shell variables. A missing file is not an error: godotenv.Load
// is best-effort here, matching the rest of C8's "unresolved secrets don't
// block startup" posture.
func LoadDotEnv(path string, logger *logrus.Logger) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		logger.WithError(err).WithField("path", path).Warn("could not load .env secrets file")
	}
}
