package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/credbridge/internal/app"
	"github.com/florianilch/credbridge/internal/observability"
)

// ErrUpdateFailed is returned when the pipeline ran but did not complete.
// The reason has already been logged.
var ErrUpdateFailed = errors.New("credential update failed")

const rootUsage = "Updates GitHub credentials from local Claude credentials"

const rootHelpTemplate = `Usage: {{.Name}} [options] [command]

{{.Usage}}
{{if .VisibleCommands}}
Commands:
{{range .VisibleCommands}}  {{.Name}}{{"\t"}}{{.Usage}}
{{end}}{{end}}
Options:
{{range .VisibleFlags}}  {{.}}
{{end}}`

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return newRootCommand(os.Stdout, os.Stderr).Run(ctx, args)
}

func newRootCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:                          "credbridge",
		Usage:                         rootUsage,
		CustomRootCommandHelpTemplate: rootHelpTemplate,
		Writer:                        stdout,
		ErrWriter:                     stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "exporter for the otel log format (stdout|otlp-http|otlp-grpc)",
				Value: string(app.DefaultConfigLogExporter),
			},
			&cli.StringFlag{
				Name:  "tool--marker-path",
				Usage: "file whose existence means the claude CLI is installed",
			},
			&cli.DurationFlag{
				Name:  "tool--refresh-timeout",
				Usage: "maximum run time of the refresh command",
				Value: app.DefaultConfigToolRefreshTimeout,
			},
			&cli.StringFlag{
				Name:  "source--storage",
				Usage: "where claude credentials are read from (file|keyring|env)",
				Value: string(app.DefaultConfigSourceStorage),
			},
			&cli.StringFlag{
				Name:  "source--file",
				Usage: "claude credentials file",
			},
			&cli.StringFlag{
				Name:  "output--storage",
				Usage: "where credentials are written to (file|keyring)",
				Value: string(app.DefaultConfigOutputStorage),
			},
			&cli.StringFlag{
				Name:  "output--file",
				Usage: "output credentials file",
				Value: app.DefaultConfigOutputFile,
			},
		},
		Commands: []*cli.Command{
			statusCommand(),
		},
		Action: updateAction,
	}
}

func updateAction(ctx context.Context, cmd *cli.Command) error {
	application, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer flush(ctx, shutdown)

	if !application.Run(ctx) {
		_, _ = fmt.Fprintln(cmd.Root().ErrWriter, "\nCredential update failed!")
		return ErrUpdateFailed
	}

	w := cmd.Root().Writer
	_, _ = fmt.Fprintln(w, "\n=== SUCCESS ===")
	_, _ = fmt.Fprintln(w, "GitHub credentials updated successfully!")
	_, _ = fmt.Fprintf(w, "Credentials saved to: %s\n", application.OutputLocation())
	_, _ = fmt.Fprintln(w, "===============")
	return nil
}

// setup loads configuration, installs logging and creates the app.
func setup(ctx context.Context, cmd *cli.Command) (*app.App, observability.ShutdownFunc, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	shutdown, err := observability.Instrument(ctx, cfg.LogLevel, string(cfg.LogFormat), string(cfg.LogExporter))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		flush(ctx, shutdown)
		return nil, nil, fmt.Errorf("failed to create app: %w", err)
	}

	return application, shutdown, nil
}

func flush(ctx context.Context, shutdown observability.ShutdownFunc) {
	// Parent context may already be cancelled by a signal
	if err := shutdown(context.WithoutCancel(ctx)); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
	}
}
