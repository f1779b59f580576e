package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trivia-bot/internal/config"
	"trivia-bot/internal/ledger"
	"trivia-bot/internal/logging"
)

// NewLeaderboardCmd prints the lifetime standings from the configured store.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the all-time leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd.Context(), cmd, *configPath, top)
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of rows to print (0 for all)")
	return cmd
}

func runLeaderboard(ctx context.Context, cmd *cobra.Command, configPath string, top int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	be, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()
	store, err := be.leaderboardStore(cfg)
	if err != nil {
		return err
	}

	standings, err := ledger.New(store, logger).Standings(ctx)
	if err != nil {
		return err
	}
	if len(standings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nobody scored anything so far!")
		return nil
	}
	if top > 0 && len(standings) > top {
		standings = standings[:top]
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tPOINTS")
	for _, s := range standings {
		fmt.Fprintf(w, "%d\t%s\t%d\n", s.Rank, s.Name, s.Score)
	}
	return w.Flush()
}
