package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultGitBin, cfg.GitBin)
	assert.Equal(t, DefaultCloneDepth, cfg.CloneDepth)
	assert.False(t, cfg.Verbose)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(
		"state_path: /var/lib/rulestack/state.db\nclone_depth: 5\n"), 0644))

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/rulestack/state.db", cfg.StatePath)
	assert.Equal(t, 5, cfg.CloneDepth)
	assert.Equal(t, DefaultGitBin, cfg.GitBin)
}

func TestLoad_ConfigFileAltExtension(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), []byte(
		"git_bin: /opt/git/bin/git\n"), 0644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/opt/git/bin/git", cfg.GitBin)
}

func TestLoad_ExplicitPathWins(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(
		"git_bin: from-cwd\n"), 0644))
	explicit := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("git_bin: from-explicit\n"), 0644))

	cfg, err := Load(explicit, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-explicit", cfg.GitBin)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml", nil)
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(
		"state_path: from-file.db\n"), 0644))
	t.Setenv("RULESTACK_STATE_PATH", "from-env.db")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.StatePath)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RULESTACK_STATE_PATH", "from-env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "")
	flags.Int("clone-depth", DefaultCloneDepth, "")
	require.NoError(t, flags.Parse([]string{"--state", "from-flag.db", "--clone-depth", "9"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag.db", cfg.StatePath)
	assert.Equal(t, 9, cfg.CloneDepth)
}

func TestLoad_UnchangedFlagsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "flag-default.db", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultGitBin, cfg.GitBin)
	assert.Equal(t, DefaultCloneDepth, cfg.CloneDepth)
}
