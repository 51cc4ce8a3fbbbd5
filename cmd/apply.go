package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solischarge/app"
	"github.com/kilianp07/solischarge/config"
	"github.com/kilianp07/solischarge/infra/logger"
)

var applyInput string

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Plan a dispatch payload and write it to the inverter once",
	RunE:  apply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyInput, "input", "i", "-", "dispatch JSON file, - for stdin")
	rootCmd.AddCommand(applyCmd)
}

func apply(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := readDispatches(applyInput)
	if err != nil {
		return fmt.Errorf("read dispatches: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	sch, err := svc.Apply(ctx, st)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", sch.RunID, sch.Summary)
	return nil
}
