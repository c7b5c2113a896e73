package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "show the credentials last written by credbridge",
		Action: statusAction,
	}
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	application, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer flush(ctx, shutdown)

	tokens, err := application.ReadOutput(ctx)
	if err != nil {
		return fmt.Errorf("no bridged credentials: %w", err)
	}

	token := tokens.Token()
	state := "valid"
	if !token.Valid() {
		state = "expired"
	}
	subscription := "standard"
	if tokens.IsMax {
		subscription = "max"
	}

	w := cmd.Root().Writer
	_, _ = fmt.Fprintf(w, "Location:     %s\n", application.OutputLocation())
	_, _ = fmt.Fprintf(w, "Subscription: %s\n", subscription)
	_, _ = fmt.Fprintf(w, "Scopes:       %s\n", strings.Join(tokens.ScopeList(), " "))
	_, _ = fmt.Fprintf(w, "Expires:      %s (%s)\n", token.Expiry.Format(time.RFC3339), state)
	return nil
}
