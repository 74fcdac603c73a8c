package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/logger"
)

func vaultServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		if r.URL.Path != "/v1/secret/data/bocado-gate" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVaultResolver_ApplyKVv2(t *testing.T) {
	srv := vaultServer(t, `{"data":{"data":{"gemini_api_key":"g-key","jwt_secret":"s3cret","ignored":42},"metadata":{"version":3}}}`)

	cfg := &config.Config{Vault: config.VaultConfig{
		Enabled:    true,
		Address:    srv.URL,
		Token:      "test-token",
		SecretPath: "/secret/data/bocado-gate",
	}}
	cfg.Auth.JWTSecret = "from-file"

	r, err := NewVaultResolver(cfg.Vault, logger.NewNoopLogger())
	require.NoError(t, err)
	applied, err := r.Apply(context.Background(), cfg)
	require.NoError(t, err)

	sort.Strings(applied)
	assert.Equal(t, []string{KeyGeminiAPIKey, KeyJWTSecret}, applied)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Empty(t, cfg.Maps.APIKey)
}

func TestVaultResolver_ReadKVv1(t *testing.T) {
	srv := vaultServer(t, `{"data":{"maps_api_key":"m-key"}}`)
	r, err := NewVaultResolver(config.VaultConfig{Address: srv.URL, Token: "test-token", SecretPath: "secret/data/bocado-gate"}, logger.NewNoopLogger())
	require.NoError(t, err)

	values, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m-key", values[KeyMapsAPIKey])
}

func TestVaultResolver_Missing(t *testing.T) {
	srv := vaultServer(t, `{}`)
	r, err := NewVaultResolver(config.VaultConfig{Address: srv.URL, Token: "test-token", SecretPath: "secret/data/other"}, logger.NewNoopLogger())
	require.NoError(t, err)

	_, err = r.Read(context.Background())
	assert.Error(t, err)
}

func TestResolve_Disabled(t *testing.T) {
	cfg := &config.Config{}
	assert.NoError(t, Resolve(context.Background(), cfg, logger.NewNoopLogger()))
}
