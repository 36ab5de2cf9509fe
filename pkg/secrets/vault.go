package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/carefinder/pkg/retry"
)

const maxVaultResponseBytes = 1 << 20

// VaultConfig points at one KV secret whose keys become environment
// variables, e.g. PLACES_API_KEY or DB_PASSWORD.
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	// Overwrite replaces variables that are already set.
	Overwrite bool
}

// VaultResult summarizes one Apply call.
type VaultResult struct {
	Loaded  []string
	Skipped []string
}

// LoadVaultConfigFromEnv reads VAULT_* variables.
func LoadVaultConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     "secret",
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	if mount := os.Getenv("VAULT_MOUNT"); mount != "" {
		cfg.Mount = mount
	}
	if v, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil {
		cfg.KVVersion = v
	}
	if d, err := time.ParseDuration(os.Getenv("VAULT_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

// Apply fetches the secret and exports its keys into the process
// environment. It is a no-op when Vault is disabled.
func Apply(ctx context.Context, cfg VaultConfig, httpClient *http.Client) (VaultResult, error) {
	if !cfg.Enabled {
		return VaultResult{}, nil
	}

	data, err := Fetch(ctx, cfg, httpClient)
	if err != nil {
		return VaultResult{}, err
	}

	var result VaultResult
	for key, value := range data {
		if !cfg.Overwrite && os.Getenv(key) != "" {
			result.Skipped = append(result.Skipped, key)
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return result, fmt.Errorf("set %s: %w", key, err)
		}
		result.Loaded = append(result.Loaded, key)
	}
	return result, nil
}

// Fetch reads one KV secret, retrying transient failures.
func Fetch(ctx context.Context, cfg VaultConfig, httpClient *http.Client) (map[string]string, error) {
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return nil, errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	url := secretURL(cfg)

	retryCfg := retry.DefaultConfig("Vault")
	retryCfg.MaxAttempts = 3

	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	err := retry.Do(ctx, retryCfg, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-Vault-Token", cfg.Token)
		if cfg.Namespace != "" {
			req.Header.Set("X-Vault-Namespace", cfg.Namespace)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxVaultResponseBytes))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("vault returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}
		return json.Unmarshal(body, &payload)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch vault secret %s: %w", cfg.Path, err)
	}

	raw, err := secretData(payload.Data, cfg.KVVersion)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = stringify(v)
	}
	return out, nil
}

// secretData unwraps the values of a KV response. KV v1 keeps them directly
// under data; v2 nests them under data.data next to the version metadata.
func secretData(data json.RawMessage, kvVersion int) (map[string]interface{}, error) {
	if kvVersion == 1 {
		var values map[string]interface{}
		if err := json.Unmarshal(data, &values); err != nil || values == nil {
			return nil, errors.New("vault response missing data for KV v1")
		}
		return values, nil
	}

	var nested struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(data, &nested); err != nil || nested.Data == nil {
		return nil, errors.New("vault response missing data for KV v2")
	}
	return nested.Data, nil
}

func secretURL(cfg VaultConfig) string {
	addr := strings.TrimRight(cfg.Addr, "/")
	mount := strings.Trim(cfg.Mount, "/")
	path := strings.TrimLeft(cfg.Path, "/")
	if cfg.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path)
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path)
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
