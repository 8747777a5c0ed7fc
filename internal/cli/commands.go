package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/translocations/internal/admin"
	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/importer"
	"github.com/JonMunkholm/translocations/internal/schema"
)

var errResetNotConfirmed = errors.New("reset removes every record; rerun with --yes to confirm")

func importCommand(open Opener) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [file.csv|file.xlsx|file.xls]",
		Short: "Replace all records with the contents of a spreadsheet",
		Long: `Import normalizes every row of the file and replaces the whole collection
with the rows that pass. Rows that fail are reported and skipped. Use
--dry-run to see the summary without touching the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := importer.DetectFormat(path); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			return withService(cmd, open, func(ctx context.Context, svc *core.Service) error {
				run := svc.Import
				if dryRun {
					run = svc.PreviewImport
				}
				summary, err := run(ctx, filepath.Base(path), data)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Normalize and report without writing")
	return cmd
}

func listCommand(open Opener) *cobra.Command {
	var species, transport, project string
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print records as JSON, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := schema.Filter{Year: year}
			var err error
			if species != "" {
				if f.Species, err = schema.ParseSpecies(species); err != nil {
					return err
				}
			}
			if transport != "" {
				if f.Transport, err = schema.ParseTransport(transport); err != nil {
					return err
				}
			}
			if f.SpecialProject, err = schema.ParseSpecialProject(project); err != nil {
				return err
			}

			return withService(cmd, open, func(ctx context.Context, svc *core.Service) error {
				recs, err := svc.List(ctx, f)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), recs)
			})
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "Species filter")
	cmd.Flags().IntVar(&year, "year", 0, "Year filter")
	cmd.Flags().StringVar(&transport, "transport", "", "Transport filter: Road or Air")
	cmd.Flags().StringVar(&project, "special-project", "", "Special project filter")
	return cmd
}

func statsCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print per-species totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *core.Service) error {
				stats, err := svc.Stats(ctx)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SPECIES\tANIMALS\tTRANSLOCATIONS")
				for _, sp := range schema.AllSpecies {
					if st, ok := stats[sp]; ok {
						fmt.Fprintf(tw, "%s\t%d\t%d\n", sp, st.TotalAnimals, st.TotalTranslocations)
					}
				}
				return tw.Flush()
			})
		},
	}
}

func resetCommand(open Opener) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errResetNotConfirmed
			}
			return withService(cmd, open, func(ctx context.Context, svc *core.Service) error {
				if err := admin.Reset(ctx, svc); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all translocations removed")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm the reset")
	return cmd
}
