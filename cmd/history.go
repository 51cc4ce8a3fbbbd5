package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solischarge/config"
	"github.com/kilianp07/solischarge/infra/history"
)

var (
	historyLimit int
	historySince time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously applied schedules",
	RunE:  listHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of schedules")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only schedules newer than this duration")
	rootCmd.AddCommand(historyCmd)
}

func listHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.History.Enabled() {
		return fmt.Errorf("history.path is not configured")
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	q := history.Query{Device: cfg.Scheduler.Device, Limit: historyLimit}
	if historySince > 0 {
		q.Start = time.Now().Add(-historySince)
	}
	rows, err := store.Query(context.Background(), q)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tLAYOUT\tSUMMARY")
	for _, s := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.CreatedAt.Format(time.RFC3339), s.RunID, s.Layout, s.Summary)
	}
	return w.Flush()
}
