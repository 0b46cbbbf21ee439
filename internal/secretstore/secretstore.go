// Package secretstore implements component C8: a single-pass, pre-startup
// substitution of `secret:` placeholders throughout the parsed
// configuration tree, resolved through a pluggable Provider.
//
// Grounded on the source's secrets/provider.go recursive-walk
// process_config and secrets/__init__.py provider selection.
package secretstore

import (
	"github.com/sirupsen/logrus"
)

// Provider resolves a secret identifier to its value. A Provider that
// cannot find the identifier returns ("", false) rather than an error —
// unresolved secrets are a startup warning, not a fatal condition (spec.md
// §4.8, §7).
type Provider interface {
	GetSecret(id string) (string, bool)
}

// Resolver walks a parsed configuration tree and replaces every string
// value beginning with "secret:" using the configured Provider.
type Resolver struct {
	provider Provider
	logger   *logrus.Logger
}

// New returns a Resolver backed by provider.
func New(provider Provider, logger *logrus.Logger) *Resolver {
	return &Resolver{provider: provider, logger: logger}
}

const secretPrefix = "secret:"

// Resolve performs the recursive walk in place over a config tree built
// from YAML-decoded generic values (map[string]interface{}, []interface{},
// and scalars) and returns it. Unresolved placeholders are left untouched
// and logged as a startup warning; the caller still starts.
func (r *Resolver) Resolve(node interface{}) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, value := range v {
			v[key] = r.resolveValue(value)
		}
		return v
	case map[interface{}]interface{}:
		// gopkg.in/yaml.v2 decodes nested maps with interface{} keys.
		for key, value := range v {
			v[key] = r.resolveValue(value)
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = r.resolveValue(item)
		}
		return v
	default:
		return node
	}
}

func (r *Resolver) resolveValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		if len(v) <= len(secretPrefix) || v[:len(secretPrefix)] != secretPrefix {
			return v
		}
		id := v[len(secretPrefix):]
		if resolved, ok := r.provider.GetSecret(id); ok {
			return resolved
		}
		r.logger.WithField("secret_id", id).Warn("secret placeholder could not be resolved; leaving it in place")
		return v
	case map[string]interface{}, map[interface{}]interface{}, []interface{}:
		return r.Resolve(v)
	default:
		return v
	}
}
