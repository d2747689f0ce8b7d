package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartpilot/internal/config"
	"github.com/roach88/cartpilot/internal/rules"
	"github.com/roach88/cartpilot/internal/testutil"
)

func TestInitSeedsUsableConfig(t *testing.T) {
	dir := t.TempDir()
	catalogPath := testutil.WriteCatalogFile(t, t.TempDir())

	out, _, err := execute(NewInitCommand(&RootOptions{Format: "text", CatalogPath: catalogPath}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote "+filepath.Join(dir, config.DefaultFile))
	assert.Contains(t, out, "✓ Wrote "+filepath.Join(dir, "rules", RulesFile))

	seeded, err := os.ReadFile(filepath.Join(dir, "rules", RulesFile))
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultSource(), seeded)

	cfg, err := config.Load(filepath.Join(dir, config.DefaultFile))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rules"), cfg.Rules.Dir)
	assert.Equal(t, catalogPath, cfg.Catalog.Path)

	opts := &RootOptions{
		Format:     "text",
		ConfigPath: filepath.Join(dir, config.DefaultFile),
		RequestIDs: testutil.NewFixedRequestID("init"),
	}
	out, _, err = execute(NewResolveCommand(opts), "need a ladder")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: working_at_height")

	out, _, err = execute(NewValidateCommand(&RootOptions{Format: "text", ConfigPath: opts.ConfigPath}))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Rules valid")
}

func TestInitKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultFile)
	require.NoError(t, os.WriteFile(cfgPath, []byte("batch:\n  concurrency: 9\n"), 0644))

	out, _, err := execute(NewInitCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
	assert.Contains(t, out, "--force")

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "batch:\n  concurrency: 9\n", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "rules", RulesFile))

	_, _, err = execute(NewInitCommand(&RootOptions{Format: "text"}), dir, "--force")
	require.NoError(t, err)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Batch.Concurrency, cfg.Batch.Concurrency)
}

func TestInitJSON(t *testing.T) {
	dir := t.TempDir()

	out, _, err := execute(NewInitCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   InitResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, filepath.Join(dir, config.DefaultFile), resp.Data.Config)
	assert.FileExists(t, resp.Data.Rules)
}
