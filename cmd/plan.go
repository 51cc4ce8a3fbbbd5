package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solischarge/config"
	"github.com/kilianp07/solischarge/core/scheduler"
	"github.com/kilianp07/solischarge/core/window"
	"github.com/kilianp07/solischarge/infra/logger"
)

var planInput string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the charge slots for a dispatch payload without writing them",
	RunE:  plan,
}

func init() {
	planCmd.Flags().StringVarP(&planInput, "input", "i", "-", "dispatch JSON file, - for stdin")
	rootCmd.AddCommand(planCmd)
}

type planOutput struct {
	Layout   string                `json:"layout"`
	Slots    []window.Slot         `json:"slots"`
	Summary  string                `json:"summary"`
	Rejected []scheduler.Rejection `json:"rejected,omitempty"`
}

func plan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sched, err := scheduler.New(cfg.Scheduler, scheduler.WithLogger(logger.New("scheduler")))
	if err != nil {
		return err
	}
	st, err := readDispatches(planInput)
	if err != nil {
		return fmt.Errorf("read dispatches: %w", err)
	}
	p := sched.Plan(st.PlannedDispatches)
	if err := window.ValidateSlots(p.Slots, p.Layout); err != nil {
		return fmt.Errorf("invalid slots: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(planOutput{
		Layout:   p.Layout.String(),
		Slots:    p.Slots,
		Summary:  p.Summary,
		Rejected: p.Rejected,
	})
}
