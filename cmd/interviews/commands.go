package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MikeSquared-Agency/interviews/internal/analytics"
	"github.com/MikeSquared-Agency/interviews/internal/config"
	"github.com/MikeSquared-Agency/interviews/internal/export"
	"github.com/MikeSquared-Agency/interviews/internal/webhook"

	"github.com/spf13/cobra"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the interviews table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			db.Close()
			slog.Info("migration complete")
			return nil
		},
	}
}

func newStatsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print interview totals as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ivs, err := db.ListInterviews(cmd.Context(), 0)
			if err != nil {
				return fmt.Errorf("list interviews: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), analytics.Summarize(ivs))
		},
	}
}

func newQuestionsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Print per-question analytics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ivs, err := db.ListInterviews(cmd.Context(), 0)
			if err != nil {
				return fmt.Errorf("list interviews: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), analytics.Questions(ivs))
		},
	}
}

func newExportCmd(cfg *config.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an XLSX report of interviews and questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ivs, err := db.ListInterviews(cmd.Context(), 0)
			if err != nil {
				return fmt.Errorf("list interviews: %w", err)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.WriteXLSX(f, ivs, analytics.Questions(ivs)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			slog.Info("report written", "path", out, "interviews", len(ivs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "interviews.xlsx", "output file")
	return cmd
}

func newReplayCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "replay FILE",
		Short: "Process a saved webhook body without signature verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := webhook.NewHandler(db).Process(cmd.Context(), body)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
