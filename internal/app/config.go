package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/credbridge/internal/bridge"
	"github.com/florianilch/credbridge/internal/credstore"
	"github.com/florianilch/credbridge/internal/observability"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = observability.FormatText
	LogFormatJSON LogFormat = observability.FormatJSON
	LogFormatOTel LogFormat = observability.FormatOTel
)

// LogExporter selects where otel-formatted logs are shipped.
type LogExporter string

const (
	LogExporterStdout   LogExporter = observability.ExporterStdout
	LogExporterOTLPHTTP LogExporter = observability.ExporterOTLPHTTP
	LogExporterOTLPGRPC LogExporter = observability.ExporterOTLPGRPC
)

// StorageType represents the backends a credential document can live in.
type StorageType string

const (
	StorageTypeFile    StorageType = "file"
	StorageTypeKeyring StorageType = "keyring"
	StorageTypeEnv     StorageType = "env"
)

// Default configuration values
const (
	DefaultConfigLogFormat            = LogFormatText
	DefaultConfigLogExporter          = LogExporterStdout
	DefaultConfigToolRefreshTimeout   = bridge.DefaultRefreshTimeout
	DefaultConfigSourceStorage        = StorageTypeFile
	DefaultConfigSourceKeyringService = "Claude Code-credentials"
	DefaultConfigOutputStorage        = StorageTypeFile
	DefaultConfigOutputFile           = "credentials.json"
	DefaultConfigOutputKeyringService = "credbridge"
)

// ToolConfig describes the Claude CLI installation and how to make it refresh.
type ToolConfig struct {
	// MarkerPath is checked for existence to decide whether the CLI is installed.
	MarkerPath string `json:"marker_path" validate:"required"`
	// Command is executed to refresh credentials (defaults to MarkerPath).
	Command        string        `json:"command" validate:"required"`
	Args           []string      `json:"args"`
	RefreshTimeout time.Duration `json:"refresh_timeout" validate:"gt=0"`
}

// SourceConfig describes where the Claude CLI keeps its credentials.
type SourceConfig struct {
	Storage StorageType `json:"storage" validate:"required,oneof=file keyring env"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File           string `json:"file,omitempty"`
	KeyringService string `json:"keyring_service,omitempty"`
	KeyringUser    string `json:"keyring_user,omitempty"`
	EnvKey         string `json:"env_key,omitempty"`
}

// OutputConfig describes where normalized credentials are written.
type OutputConfig struct {
	Storage StorageType `json:"storage" validate:"required,oneof=file keyring"`

	File           string `json:"file,omitempty"`
	KeyringService string `json:"keyring_service,omitempty"`
	KeyringUser    string `json:"keyring_user,omitempty"`
}

// NewStore creates the source credential store.
func (s *SourceConfig) NewStore() (credstore.Store, error) {
	switch s.Storage {
	case StorageTypeFile:
		return credstore.NewFileStore(s.File)
	case StorageTypeKeyring:
		return credstore.NewKeyringStore(s.KeyringService, s.KeyringUser)
	case StorageTypeEnv:
		return credstore.NewEnvStore(s.EnvKey)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Storage)
	}
}

// NewStore creates the output credential store.
func (o *OutputConfig) NewStore() (credstore.Store, error) {
	switch o.Storage {
	case StorageTypeFile:
		return credstore.NewFileStore(o.File)
	case StorageTypeKeyring:
		return credstore.NewKeyringStore(o.KeyringService, o.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", o.Storage)
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level   `json:"log_level"`
	LogFormat   LogFormat    `json:"log_format" validate:"oneof=text json otel"`
	LogExporter LogExporter  `json:"log_exporter" validate:"oneof=stdout otlp-http otlp-grpc"`
	Tool        ToolConfig   `json:"tool"`
	Source      SourceConfig `json:"source"`
	Output      OutputConfig `json:"output"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with defaults. Paths under the
// Claude CLI's directory are resolved against the user's home directory.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.LogExporter == "" {
		c.LogExporter = DefaultConfigLogExporter
	}
	if c.Tool.RefreshTimeout == 0 {
		c.Tool.RefreshTimeout = DefaultConfigToolRefreshTimeout
	}
	if c.Tool.Args == nil {
		c.Tool.Args = slices.Clone(bridge.DefaultRefreshArgs)
	}
	if c.Source.Storage == "" {
		c.Source.Storage = DefaultConfigSourceStorage
	}
	if c.Output.Storage == "" {
		c.Output.Storage = DefaultConfigOutputStorage
	}

	needsHome := c.Tool.MarkerPath == "" || (c.Source.Storage == StorageTypeFile && c.Source.File == "")
	if needsHome {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("tool.marker_path and source.file required (auto-detect failed: %w)", err)
		}
		if c.Tool.MarkerPath == "" {
			c.Tool.MarkerPath = filepath.Join(home, ".claude", "local", "claude")
		}
		if c.Source.Storage == StorageTypeFile && c.Source.File == "" {
			c.Source.File = filepath.Join(home, ".claude", ".credentials.json")
		}
	}
	if c.Tool.Command == "" {
		c.Tool.Command = c.Tool.MarkerPath
	}

	// Dynamic defaults based on storage type
	switch c.Source.Storage {
	case StorageTypeKeyring:
		if c.Source.KeyringService == "" {
			c.Source.KeyringService = DefaultConfigSourceKeyringService
		}
		if c.Source.KeyringUser == "" {
			username, err := currentUsername()
			if err != nil {
				return fmt.Errorf("source.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Source.KeyringUser = username
		}
	case StorageTypeEnv:
		// env_key must be explicitly configured (no sensible default)
	}

	switch c.Output.Storage {
	case StorageTypeFile:
		if c.Output.File == "" {
			c.Output.File = DefaultConfigOutputFile
		}
	case StorageTypeKeyring:
		if c.Output.KeyringService == "" {
			c.Output.KeyringService = DefaultConfigOutputKeyringService
		}
		if c.Output.KeyringUser == "" {
			username, err := currentUsername()
			if err != nil {
				return fmt.Errorf("output.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Output.KeyringUser = username
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and storage-specific rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Source.Storage {
	case StorageTypeFile:
		if c.Source.File == "" {
			return errors.New("source.file required for file storage")
		}
	case StorageTypeKeyring:
		if c.Source.KeyringService == "" || c.Source.KeyringUser == "" {
			return errors.New("source.keyring_service and source.keyring_user required for keyring storage")
		}
	case StorageTypeEnv:
		if c.Source.EnvKey == "" {
			return errors.New("source.env_key required for env storage")
		}
	}

	switch c.Output.Storage {
	case StorageTypeFile:
		if c.Output.File == "" {
			return errors.New("output.file required for file storage")
		}
	case StorageTypeKeyring:
		if c.Output.KeyringService == "" || c.Output.KeyringUser == "" {
			return errors.New("output.keyring_service and output.keyring_user required for keyring storage")
		}
	}

	return nil
}

func currentUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}
