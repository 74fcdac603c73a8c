package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bocado-ai/gate/internal/domain/models"
)

func writeConfig(t *testing.T, redisAddr string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`database:
  driver: sqlite
  database: %s
redis:
  address: %s
rate_limit:
  backend: redis
log:
  level: error
`, filepath.Join(dir, "gate.db"), redisAddr)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRateLimitStatusAndReset(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr.Addr())

	out, err := run(t, "ratelimit", "status", "--config", cfg, "--policy", "recommendations", "--identity", "u1")
	require.NoError(t, err)
	var st models.RateLimitStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "recommendations", st.Policy)
	assert.True(t, st.CanRequest)
	assert.Zero(t, st.RequestsInWindow)

	out, err = run(t, "ratelimit", "reset", "--config", cfg, "--policy", "recommendations", "--identity", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "reset recommendations for u1")
}

func TestRateLimitRejectsBadInput(t *testing.T) {
	_, err := run(t, "ratelimit", "status", "--policy", "recommendations")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	_, err = run(t, "ratelimit", "reset", "--config", writeConfig(t, mr.Addr()), "--policy", "nope", "--identity", "u1")
	assert.ErrorContains(t, err, "unknown policy")
}

func TestCleanupCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr.Addr())

	out, err := run(t, "cleanup", "run", "--config", cfg)
	require.NoError(t, err)
	var results []models.CleanupResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.NotEmpty(t, results)

	out, err = run(t, "cleanup", "manual", "--config", cfg, "--collection", "history", "--days", "7")
	require.NoError(t, err)
	results = nil
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "history", results[0].Job)

	_, err = run(t, "cleanup", "manual", "--config", cfg, "--collection", "users", "--days", "7")
	assert.Error(t, err)
	_, err = run(t, "cleanup", "manual", "--config", cfg, "--collection", "history", "--days", "400")
	assert.Error(t, err)
}
