// Package cli implements the translocctl maintenance commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/translocations/internal/core"
)

// Opener builds the service the commands run against. The returned func
// releases the underlying store.
type Opener func(ctx context.Context) (*core.Service, func(), error)

// RootCommand creates translocctl with its subcommands.
func RootCommand(open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "translocctl",
		Short:         "Manage wildlife translocation records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		importCommand(open),
		listCommand(open),
		statsCommand(open),
		resetCommand(open),
	)
	return rootCmd
}

// withService opens the service for one command run.
func withService(cmd *cobra.Command, open Opener, run func(ctx context.Context, svc *core.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	return run(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
