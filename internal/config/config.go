/*
 * Package config holds the agent's runtime settings and the translation of
 * command-line arguments into an AttackSpec.
 *
 * Settings are resolved in priority order:
 *  1. Command-line flags
 *  2. .env file values (loaded via godotenv, MDX_ prefixed)
 *  3. agent.yaml next to the executable or in the working directory
 *  4. Built-in defaults
 */
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashwrap/mdxagent/pkg/debug"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHashType selects every algorithm except those requiring a
	// username, including salted variants. Matches the engine's own
	// selector syntax.
	DefaultHashType = "ALL,!user,salt"

	// DefaultIterations is the iteration depth passed to the engine.
	DefaultIterations = 10

	// DefaultStatusInterval is how often a STATUS line is emitted.
	DefaultStatusInterval = 5 * time.Second

	// DefaultGracePeriod is how long the engine gets to exit after a
	// termination request before it is killed.
	DefaultGracePeriod = 10 * time.Second

	// DefaultOrphanPollInterval is how often the agent checks that its
	// parent process is still alive.
	DefaultOrphanPollInterval = 1 * time.Second
)

// Settings holds agent-level configuration that is independent of any
// single attack: where the engine lives and how the supervisor behaves.
type Settings struct {
	EnginePath         string        `yaml:"engine_path"`
	StatusInterval     time.Duration `yaml:"status_interval"`
	GracePeriod        time.Duration `yaml:"grace_period"`
	OrphanPollInterval time.Duration `yaml:"orphan_poll_interval"`
	WorkDirRoot        string        `yaml:"work_dir_root"`
}

// yamlSettings mirrors Settings with string durations so agent.yaml can
// use forms like "5s" and "2m".
type yamlSettings struct {
	EnginePath         string `yaml:"engine_path"`
	StatusInterval     string `yaml:"status_interval"`
	GracePeriod        string `yaml:"grace_period"`
	OrphanPollInterval string `yaml:"orphan_poll_interval"`
	WorkDirRoot        string `yaml:"work_dir_root"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		StatusInterval:     DefaultStatusInterval,
		GracePeriod:        DefaultGracePeriod,
		OrphanPollInterval: DefaultOrphanPollInterval,
		WorkDirRoot:        os.TempDir(),
	}
}

// LoadSettings resolves agent settings from .env, agent.yaml and defaults.
// Missing files are not errors; a malformed agent.yaml is, since a user
// who wrote one expects it to be honored.
func LoadSettings() (Settings, error) {
	s := DefaultSettings()

	// agent.yaml: working directory first, then next to the executable.
	candidates := []string{"agent.yaml"}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "agent.yaml"))
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		debug.Info("Loading settings from %s", path)
		if err := applyYAML(&s, data); err != nil {
			return s, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		break
	}

	// .env overrides agent.yaml. Loaded into the process environment so
	// DEBUG/LOG_LEVEL also reach the debug package.
	if err := godotenv.Load(); err == nil {
		debug.Info("Loaded .env file from working directory")
	}
	debug.Reinitialize()

	if v := os.Getenv("MDX_ENGINE_PATH"); v != "" {
		s.EnginePath = v
	}
	if v := os.Getenv("MDX_STATUS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("invalid MDX_STATUS_INTERVAL %q: %w", v, err)
		}
		s.StatusInterval = d
	}
	if v := os.Getenv("MDX_GRACE_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("invalid MDX_GRACE_PERIOD %q: %w", v, err)
		}
		s.GracePeriod = d
	}
	if v := os.Getenv("MDX_WORK_DIR"); v != "" {
		s.WorkDirRoot = v
	}

	return s, nil
}

// applyYAML overlays non-empty agent.yaml values onto s.
func applyYAML(s *Settings, data []byte) error {
	var y yamlSettings
	if err := yaml.Unmarshal(data, &y); err != nil {
		return err
	}

	if y.EnginePath != "" {
		s.EnginePath = y.EnginePath
	}
	if y.WorkDirRoot != "" {
		s.WorkDirRoot = y.WorkDirRoot
	}
	for _, field := range []struct {
		raw string
		dst *time.Duration
	}{
		{y.StatusInterval, &s.StatusInterval},
		{y.GracePeriod, &s.GracePeriod},
		{y.OrphanPollInterval, &s.OrphanPollInterval},
	} {
		if field.raw == "" {
			continue
		}
		d, err := time.ParseDuration(field.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", field.raw, err)
		}
		*field.dst = d
	}
	return nil
}
