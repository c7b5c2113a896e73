package commands

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/credbridge/internal/app"
)

// runWithArgs parses args with the root command's flags and hands the parsed
// command to action instead of running the update.
func runWithArgs(t *testing.T, action cli.ActionFunc, args ...string) error {
	t.Helper()

	cmd := newRootCommand(&nopWriter{}, &nopWriter{})
	cmd.Commands = nil
	cmd.Action = action
	return cmd.Run(context.Background(), append([]string{"credbridge"}, args...))
}

// loadWithArgs parses args with the root command's flags and loads config from them.
func loadWithArgs(t *testing.T, configPath string, environ []string, args ...string) *app.Config {
	t.Helper()

	var cfg *app.Config
	err := runWithArgs(t, func(_ context.Context, c *cli.Command) error {
		var err error
		cfg, err = loadConfig(configPath, c, func() []string { return environ })
		return err
	}, args...)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("loadConfig() returned no config")
	}
	return cfg
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := loadWithArgs(t, "", nil)

	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("log level = %v, want info", cfg.LogLevel)
	}
	if want := filepath.Join(home, ".claude", "local", "claude"); cfg.Tool.MarkerPath != want {
		t.Errorf("marker path = %q, want %q", cfg.Tool.MarkerPath, want)
	}
	if want := filepath.Join(home, ".claude", ".credentials.json"); cfg.Source.File != want {
		t.Errorf("source file = %q, want %q", cfg.Source.File, want)
	}
	if cfg.Output.File != "credentials.json" {
		t.Errorf("output file = %q, want credentials.json", cfg.Output.File)
	}
	if cfg.Tool.RefreshTimeout != 30*time.Second {
		t.Errorf("refresh timeout = %v, want 30s", cfg.Tool.RefreshTimeout)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	configPath := filepath.Join(t.TempDir(), "credbridge.toml")
	err := os.WriteFile(configPath, []byte(`
log_level = "debug"

[tool]
marker_path = "/from/file/claude"
refresh_timeout = "10s"

[output]
file = "from-file.json"
`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("file only", func(t *testing.T) {
		cfg := loadWithArgs(t, configPath, nil)

		if cfg.LogLevel != slog.LevelDebug {
			t.Errorf("log level = %v, want debug", cfg.LogLevel)
		}
		if cfg.Tool.MarkerPath != "/from/file/claude" || cfg.Tool.Command != "/from/file/claude" {
			t.Errorf("marker/command = %q/%q", cfg.Tool.MarkerPath, cfg.Tool.Command)
		}
		if cfg.Tool.RefreshTimeout != 10*time.Second {
			t.Errorf("refresh timeout = %v, want 10s", cfg.Tool.RefreshTimeout)
		}
		if cfg.Output.File != "from-file.json" {
			t.Errorf("output file = %q", cfg.Output.File)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		cfg := loadWithArgs(t, configPath, []string{
			"CREDBRIDGE_OUTPUT__FILE=from-env.json",
			"CREDBRIDGE_TOOL__REFRESH_TIMEOUT=45s",
			"CREDBRIDGE_TOOL__COMMAND=/from/env/claude",
			"UNRELATED=ignored",
		})

		if cfg.Output.File != "from-env.json" {
			t.Errorf("output file = %q", cfg.Output.File)
		}
		if cfg.Tool.RefreshTimeout != 45*time.Second {
			t.Errorf("refresh timeout = %v, want 45s", cfg.Tool.RefreshTimeout)
		}
		if cfg.Tool.MarkerPath != "/from/file/claude" {
			t.Errorf("marker path = %q", cfg.Tool.MarkerPath)
		}
		if cfg.Tool.Command != "/from/env/claude" {
			t.Errorf("command = %q, want it from the environment", cfg.Tool.Command)
		}
	})

	t.Run("flags override env", func(t *testing.T) {
		cfg := loadWithArgs(t, configPath,
			[]string{"CREDBRIDGE_OUTPUT__FILE=from-env.json"},
			"--output--file", "from-flag.json",
			"--tool--refresh-timeout", "5s",
			"--log-level", "warn",
		)

		if cfg.Output.File != "from-flag.json" {
			t.Errorf("output file = %q", cfg.Output.File)
		}
		if cfg.Tool.RefreshTimeout != 5*time.Second {
			t.Errorf("refresh timeout = %v, want 5s", cfg.Tool.RefreshTimeout)
		}
		if cfg.LogLevel != slog.LevelWarn {
			t.Errorf("log level = %v, want warn", cfg.LogLevel)
		}
	})
}

// The refresh command is a config file or environment setting only.
func TestRefreshCommandIsNotAFlag(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	called := false
	err := runWithArgs(t, func(context.Context, *cli.Command) error {
		called = true
		return nil
	}, "--tool--command", "/bin/true")

	if err == nil {
		t.Fatal("--tool--command should be rejected")
	}
	if called {
		t.Error("action ran despite the undefined flag")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	err := runWithArgs(t, func(_ context.Context, c *cli.Command) error {
		_, err := loadConfig("", c, func() []string { return nil })
		return err
	}, "--log-format", "xml")

	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("error = %v, want invalid config", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), nil, func() []string { return nil })
	if err == nil || !strings.Contains(err.Error(), "loading config file") {
		t.Errorf("error = %v, want loading config file", err)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"CREDBRIDGE_LOG_LEVEL":             "log_level",
		"CREDBRIDGE_TOOL__REFRESH_TIMEOUT": "tool.refresh_timeout",
		"CREDBRIDGE_SOURCE__KEYRING_USER":  "source.keyring_user",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			key, value := envKey(in, "v")
			if key != want || value != "v" {
				t.Errorf("envKey(%q) = %q, %v; want %q, v", in, key, value, want)
			}
		})
	}
}

func TestFlagValues(t *testing.T) {
	var values map[string]any
	err := runWithArgs(t, func(_ context.Context, c *cli.Command) error {
		values = flagValues(c)
		return nil
	}, "--tool--marker-path", "/x/claude", "--log-format", "json")
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"tool.marker_path": "/x/claude",
		"log_format":       "json",
	}
	if !maps.Equal(values, want) {
		t.Errorf("flagValues() = %v, want %v", values, want)
	}
}

func TestFlagValuesSkipsCommandFlags(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "credbridge.toml")
	if err := os.WriteFile(configPath, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	var values map[string]any
	err := runWithArgs(t, func(_ context.Context, c *cli.Command) error {
		values = flagValues(c)
		return nil
	}, "-c", configPath)
	if err != nil {
		t.Fatal(err)
	}

	if len(values) != 0 {
		t.Errorf("flagValues() = %v, want empty", values)
	}
}
