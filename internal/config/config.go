// Package config provides configuration loading for rulestack from file,
// environment variables, and CLI flags.
package config

// Default configuration values.
const (
	DefaultStateFile  = ".rulestack/state.db"
	DefaultGitBin     = "git"
	DefaultCloneDepth = 1
)

// Config holds the resolved runtime configuration.
type Config struct {
	// StatePath is the path to the SQLite project database.
	StatePath string `koanf:"state_path"`
	// GitBin is the git executable used for clone/archive operations.
	GitBin string `koanf:"git_bin"`
	// CloneDepth is the shallow clone depth for imports.
	CloneDepth int `koanf:"clone_depth"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
}

// ApplyDefaults fills unset fields with default values.
func (c *Config) ApplyDefaults() {
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.GitBin == "" {
		c.GitBin = DefaultGitBin
	}
	if c.CloneDepth <= 0 {
		c.CloneDepth = DefaultCloneDepth
	}
}
