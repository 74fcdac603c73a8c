// Package secrets overlays credentials stored in HashiCorp Vault onto the
// loaded configuration.
package secrets

import (
	"context"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/logger"
)

// Secret keys recognized in the Vault document.
const (
	KeyGeminiAPIKey     = "gemini_api_key"
	KeyMapsAPIKey       = "maps_api_key"
	KeyJWTSecret        = "jwt_secret"
	KeyAdminKey         = "admin_key"
	KeyRedisPassword    = "redis_password"
	KeyDatabasePassword = "database_password"
)

// VaultResolver reads one secret document and applies it to a Config.
type VaultResolver struct {
	client *vault.Client
	path   string
	log    logger.Logger
}

// NewVaultResolver creates a resolver for cfg.SecretPath.
func NewVaultResolver(cfg config.VaultConfig, log logger.Logger) (*VaultResolver, error) {
	vaultConfig := vault.DefaultConfig()
	if cfg.Address != "" {
		vaultConfig.Address = cfg.Address
	}
	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	return &VaultResolver{
		client: client,
		path:   strings.Trim(cfg.SecretPath, "/"),
		log:    log.WithComponent("secrets"),
	}, nil
}

// Read returns the string values of the secret document. KV v2 documents
// (with a nested "data" object) and KV v1 documents are both accepted.
func (r *VaultResolver) Read(ctx context.Context) (map[string]string, error) {
	secret, err := r.client.Logical().ReadWithContext(ctx, r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault secret %s: %w", r.path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault secret %s not found", r.path)
	}

	data := secret.Data
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}

	out := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

// Apply overrides the credentials in cfg with the values found in Vault and
// returns the keys that were applied.
func (r *VaultResolver) Apply(ctx context.Context, cfg *config.Config) ([]string, error) {
	values, err := r.Read(ctx)
	if err != nil {
		return nil, err
	}

	targets := map[string]*string{
		KeyGeminiAPIKey:     &cfg.AI.APIKey,
		KeyMapsAPIKey:       &cfg.Maps.APIKey,
		KeyJWTSecret:        &cfg.Auth.JWTSecret,
		KeyAdminKey:         &cfg.Auth.AdminKey,
		KeyRedisPassword:    &cfg.Redis.Password,
		KeyDatabasePassword: &cfg.Database.Password,
	}
	var applied []string
	for key, dst := range targets {
		if v := values[key]; v != "" {
			*dst = v
			applied = append(applied, key)
		}
	}

	r.log.Info(ctx, "Applied secrets from vault",
		logger.String("path", r.path),
		logger.Int("count", len(applied)),
	)
	return applied, nil
}

// Resolve applies Vault secrets to cfg when Vault is enabled.
func Resolve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if !cfg.Vault.Enabled {
		return nil
	}
	r, err := NewVaultResolver(cfg.Vault, log)
	if err != nil {
		return err
	}
	_, err = r.Apply(ctx, cfg)
	return err
}
