package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mensylisir/dockmcp/pkg/runner"
)

var statsCmd = &cobra.Command{
	Use:   "stats CONTAINER",
	Short: "Show a one-shot resource usage snapshot of a running container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		res, err := r.Stats(cmd.Context(), runner.StatsInput{Container: args[0]})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), res.Table)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
