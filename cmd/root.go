// Package cmd implements the solischarge command line.
package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solischarge/core/model"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "solischarge",
	Short: "Solis battery charge scheduler",
	RunE:         serve,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func readDispatches(path string) (model.DispatchState, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return model.DispatchState{}, err
		}
		return model.DecodeDispatchState(b)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return model.DispatchState{}, err
	}
	return model.DecodeDispatchState(b)
}
