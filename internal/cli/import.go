package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"trivia-bot/internal/bank"
	"trivia-bot/internal/config"
	pgstore "trivia-bot/internal/infra/postgres"
)

// NewImportCmd converts a question file (.json or .xlsx) into a JSON bank
// and optionally stores it in Postgres under a bank name.
func NewImportCmd(configPath *string) *cobra.Command {
	var out, name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import questions from a JSON or Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd, *configPath, args[0], out, name)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the normalised bank as JSON to this path")
	cmd.Flags().StringVar(&name, "bank", "", "store the questions in Postgres under this bank name")
	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, configPath, src, out, name string) error {
	questions, err := bank.LoadFile(src)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("%s contains no questions", src)
	}

	if out != "" {
		var buf bytes.Buffer
		if err := bank.WriteJSON(&buf, questions); err != nil {
			return err
		}
		if err := renameio.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
	}

	if name != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Postgres.URL == "" {
			return fmt.Errorf("--bank requires postgres.url")
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := pgstore.NewBankLoader(pool).SaveBank(ctx, name, questions); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions from %s\n", len(questions), src)
	return nil
}
