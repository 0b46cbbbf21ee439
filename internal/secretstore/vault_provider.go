package secretstore

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"time"
)

// VaultProvider resolves secrets from a HashiCorp Vault KV v2 mount over its
// HTTP API, matching secrets/vault_provider.py's behavior. No Vault client
// SDK appears anywhere in the example pack (see DESIGN.md), so this talks to
// Vault directly with net/http rather than inventing a dependency.
type VaultProvider struct {
	baseURL    string
	token      string
	pathPrefix string
	client     *http.Client
}

// NewVaultProvider returns a VaultProvider for the given Vault address and
// token, reading secrets under pathPrefix (default "rtcollector").
func NewVaultProvider(baseURL, token, pathPrefix string) *VaultProvider {
	if pathPrefix == "" {
		pathPrefix = "rtcollector"
	}
	return &VaultProvider{
		baseURL:    baseURL,
		token:      token,
		pathPrefix: pathPrefix,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

type vaultKVResponse struct {
	Data struct {
		Data map[string]interface{} `json:"data"`
	} `json:"data"`
}

// GetSecret fetches secret/data/<pathPrefix>/<id> and returns its "value"
// field. secretID may itself carry a "/"-separated sub-path and field name
// as "sub/path#field"; when no "#field" suffix is given, "value" is used.
func (p *VaultProvider) GetSecret(secretID string) (string, bool) {
	if p.baseURL == "" {
		return "", false
	}
	field := "value"
	id := secretID
	if idx := indexByte(secretID, '#'); idx >= 0 {
		id, field = secretID[:idx], secretID[idx+1:]
	}

	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", false
	}
	u.Path = path.Join(u.Path, "v1", "secret", "data", p.pathPrefix, id)

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("X-Vault-Token", p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var parsed vaultKVResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false
	}
	raw, ok := parsed.Data.Data[field]
	if !ok {
		return "", false
	}
	str, ok := raw.(string)
	return str, ok
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// ProviderFromConfig selects a Provider from the secret_store config
// section, matching secrets/__init__.py's get_secret_provider.
func ProviderFromConfig(secretStore map[string]interface{}) Provider {
	providerType, _ := secretStore["type"].(string)
	switch providerType {
	case "vault":
		url, _ := secretStore["url"].(string)
		token, _ := secretStore["token"].(string)
		prefix, _ := secretStore["path_prefix"].(string)
		return NewVaultProvider(url, token, prefix)
	default:
		prefix, _ := secretStore["prefix"].(string)
		return NewEnvProvider(prefix)
	}
}
