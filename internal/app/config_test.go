package app

import (
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	checks := []struct {
		name      string
		got, want any
	}{
		{"log format", cfg.LogFormat, LogFormatText},
		{"log exporter", cfg.LogExporter, LogExporterStdout},
		{"marker path", cfg.Tool.MarkerPath, filepath.Join(home, ".claude", "local", "claude")},
		{"command", cfg.Tool.Command, cfg.Tool.MarkerPath},
		{"refresh timeout", cfg.Tool.RefreshTimeout, 30 * time.Second},
		{"source storage", cfg.Source.Storage, StorageTypeFile},
		{"source file", cfg.Source.File, filepath.Join(home, ".claude", ".credentials.json")},
		{"output storage", cfg.Output.Storage, StorageTypeFile},
		{"output file", cfg.Output.File, "credentials.json"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if !slices.Equal(cfg.Tool.Args, []string{"-p", "! pwd"}) {
		t.Errorf("args = %q, want [-p \"! pwd\"]", cfg.Tool.Args)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &Config{
		Tool: ToolConfig{
			MarkerPath:     "/opt/claude/bin/claude",
			Args:           []string{},
			RefreshTimeout: time.Minute,
		},
		Source: SourceConfig{Storage: StorageTypeKeyring, KeyringUser: "alice"},
		Output: OutputConfig{File: "/tmp/out.json"},
	}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}

	if cfg.Tool.Command != "/opt/claude/bin/claude" {
		t.Errorf("command = %q, want the marker path", cfg.Tool.Command)
	}
	if len(cfg.Tool.Args) != 0 {
		t.Errorf("args = %q, want explicit empty list kept", cfg.Tool.Args)
	}
	if cfg.Tool.RefreshTimeout != time.Minute {
		t.Errorf("refresh timeout = %v, want 1m", cfg.Tool.RefreshTimeout)
	}
	if cfg.Source.KeyringService != DefaultConfigSourceKeyringService || cfg.Source.KeyringUser != "alice" {
		t.Errorf("source keyring = %q/%q", cfg.Source.KeyringService, cfg.Source.KeyringUser)
	}
	if cfg.Source.File != "" {
		t.Errorf("source file = %q, want empty for keyring storage", cfg.Source.File)
	}
	if cfg.Output.File != "/tmp/out.json" {
		t.Errorf("output file = %q", cfg.Output.File)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "json format", mutate: func(c *Config) { c.LogFormat = LogFormatJSON }},
		{name: "otel grpc", mutate: func(c *Config) { c.LogFormat = LogFormatOTel; c.LogExporter = LogExporterOTLPGRPC }},
		{name: "unknown format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "unknown exporter", mutate: func(c *Config) { c.LogExporter = "zipkin" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Tool.RefreshTimeout = -time.Second }, wantErr: true},
		{name: "missing command", mutate: func(c *Config) { c.Tool.Command = "" }, wantErr: true},
		{name: "env source without key", mutate: func(c *Config) { c.Source.Storage = StorageTypeEnv }, wantErr: true},
		{name: "env source with key", mutate: func(c *Config) { c.Source.Storage = StorageTypeEnv; c.Source.EnvKey = "CLAUDE_CREDENTIALS" }},
		{name: "env output is read-only", mutate: func(c *Config) { c.Output.Storage = StorageTypeEnv }, wantErr: true},
		{name: "keyring output without user", mutate: func(c *Config) { c.Output.Storage = StorageTypeKeyring; c.Output.KeyringService = "x" }, wantErr: true},
		{name: "empty output file", mutate: func(c *Config) { c.Output.File = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			if err != nil {
				t.Fatalf("Default() error = %v", err)
			}

			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() should fail")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestNewStore(t *testing.T) {
	source := SourceConfig{Storage: StorageTypeEnv, EnvKey: "CLAUDE_CREDENTIALS"}
	store, err := source.NewStore()
	if err != nil {
		t.Fatalf("source NewStore() error = %v", err)
	}
	if store.Location() != "env://CLAUDE_CREDENTIALS" {
		t.Errorf("source location = %q", store.Location())
	}

	output := OutputConfig{Storage: StorageTypeKeyring, KeyringService: "credbridge", KeyringUser: "alice"}
	store, err = output.NewStore()
	if err != nil {
		t.Fatalf("output NewStore() error = %v", err)
	}
	if store.Location() != "keyring://credbridge/alice" {
		t.Errorf("output location = %q", store.Location())
	}

	if _, err := (&OutputConfig{Storage: StorageTypeEnv}).NewStore(); err == nil {
		t.Error("env output store should be rejected")
	}
}
