package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/slate/internal/admin"
	"github.com/JonMunkholm/slate/internal/core"
	"github.com/JonMunkholm/slate/internal/store/memory"
)

func ingestCmd() *cobra.Command {
	var fileType, sport string

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Merge roster, projections or analysis files into the player pool",
		Long: `Ingest processes each file in order, exactly as an upload would.

The file type is taken from --type, or inferred from the file name when
--type is empty. Processing stops at the first failed file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				res, err := service.Ingest(cmd.Context(), core.IngestRequest{
					Filename: filepath.Base(path),
					Data:     data,
					Type:     fileType,
					Sport:    sport,
				})
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d merged, %d skipped, %d collapsed, %d deactivated\n",
					path, res.FileType, res.Merged, res.Dropped, res.Collapsed, res.Deactivated)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&fileType, "type", "t", "", "File type (roster, projections, analysis)")
	cmd.Flags().StringVarP(&sport, "sport", "s", "", "Sport tag; inferred from roster positions when empty")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		sport    string
		settings string
		lineups  []string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write lineups as a partner-site upload CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if settings == "" && len(lineups) == 0 {
				return fmt.Errorf("one of --settings or --lineup is required")
			}

			service, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if settings != "" {
				_, err = service.ExportSettingsLineups(cmd.Context(), w, settings)
				return err
			}
			if sport == "" {
				return fmt.Errorf("--sport is required with --lineup")
			}
			return service.ExportLineups(cmd.Context(), w, sport, lineups)
		},
	}

	cmd.Flags().StringVar(&settings, "settings", "", "Export every lineup generated for this settings id")
	cmd.Flags().StringSliceVar(&lineups, "lineup", nil, "Lineup ids to export, in order")
	cmd.Flags().StringVar(&sport, "sport", "", "Sport of the lineups (with --lineup)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func importLineupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-lineups [lineups.json]",
		Short: "Store lineups from a saved optimizer result so they can be exported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var lineups []core.Lineup
			if err := json.Unmarshal(data, &lineups); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			service, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := service.ImportLineups(cmd.Context(), lineups)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d lineups\n", n, len(lineups))
			return err
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [settings.json]",
		Short: "Check optimization settings without generating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var settings core.OptimizationSettings
			if err := json.Unmarshal(data, &settings); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			normalized, err := core.NewService(memory.New(), core.ServiceOptions{}).ValidateSettings(settings)
			if verr, ok := core.AsValidationError(err); ok {
				for _, p := range verr.Problems {
					fmt.Fprintln(cmd.ErrOrStderr(), "  -", p)
				}
				return err
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(normalized)
		},
	}
}

func uploadsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List recent upload ledger entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			uploads, err := service.ListUploads(cmd.Context(), limit)
			if err != nil {
				return err
			}

			return renderUploads(cmd.OutOrStdout(), uploads)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum entries")
	return cmd
}

// renderUploads writes ledger entries as a table in the order given.
func renderUploads(w io.Writer, uploads []core.FileUpload) error {
	config := tablewriter.Config{}
	config.Row.Alignment = tw.CellAlignment{PerColumn: []tw.Align{
		tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignLeft,
	}}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	table.Header("ID", "FILE", "TYPE", "STATUS", "ROWS", "CREATED")

	for _, u := range uploads {
		if err := table.Append(
			u.ID, u.Filename, string(u.FileType), uploadStatus(u),
			strconv.Itoa(u.RowCount), u.CreatedAt.Format("2006-01-02 15:04"),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// uploadStatus is processed, failed (an error was recorded) or pending.
func uploadStatus(u core.FileUpload) string {
	switch {
	case u.Processed:
		return "processed"
	case u.Error != "":
		return "failed"
	default:
		return "pending"
	}
}

func resetCmd() *cobra.Command {
	var (
		scope string
		yes   bool
	)

	cmd := &cobra.Command{
		Use:     "reset",
		Aliases: []string{"clear"},
		Short:   "Delete the player pool (and processed ledger entries with --scope all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := admin.ParseScope(scope)
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("reset is destructive; rerun with --yes")
			}

			service, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			results, err := admin.Reset(cmd.Context(), service, s)
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d removed\n", r.Name, r.Removed)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "players", "What to reset: players or all")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
