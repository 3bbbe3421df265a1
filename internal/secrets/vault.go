package secrets

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"

	"bilimbagdar/internal/config"
)

// Client wraps the HashiCorp Vault KV v2 API as an optional secret source
// for deployment credentials (service account JSON, JWT secret).
type Client struct {
	client  *api.Client
	kvMount string
}

// NewClient creates a new Vault client
func NewClient(cfg *config.VaultConfig) (*Client, error) {
	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.Address

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client:  client,
		kvMount: cfg.KVMount,
	}, nil
}

// GetSecret reads one field from a KV v2 secret
func (c *Client) GetSecret(ctx context.Context, secretPath, field string) (string, error) {
	kv := c.client.KVv2(c.kvMount)

	secret, err := kv.Get(ctx, secretPath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", secretPath, err)
	}

	raw, ok := secret.Data[field]
	if !ok {
		return "", fmt.Errorf("secret %s has no field %q", secretPath, field)
	}

	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("secret field %s/%s is not a string", secretPath, field)
	}

	return value, nil
}

// LoadInto resolves the secret fields the application understands and writes
// them over the env-derived config. Missing fields are left untouched so a
// partial secret still works.
func LoadInto(ctx context.Context, cfg *config.Config) error {
	if !cfg.Vault.Enabled {
		return nil
	}

	client, err := NewClient(&cfg.Vault)
	if err != nil {
		return err
	}

	if v, err := client.GetSecret(ctx, cfg.Vault.SecretKey, "gcp_service_account"); err == nil && v != "" {
		cfg.Sheets.ServiceAccountJSON = v
	}
	if v, err := client.GetSecret(ctx, cfg.Vault.SecretKey, "jwt_secret"); err == nil && v != "" {
		cfg.JWT.Secret = v
	}
	if v, err := client.GetSecret(ctx, cfg.Vault.SecretKey, "database_dsn"); err == nil && v != "" {
		cfg.Database.DSN = v
	}

	return nil
}
