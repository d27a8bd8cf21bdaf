package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/runner"
)

type LogsOptions struct {
	Tail       int
	Since      string
	Until      string
	Timestamps bool
}

var logsOptions = &LogsOptions{}

func init() {
	rootCmd.AddCommand(logsCmd)
	addLogsFlags(logsCmd.Flags(), logsOptions)
}

func addLogsFlags(fs *pflag.FlagSet, o *LogsOptions) {
	fs.IntVarP(&o.Tail, "tail", "n", common.DefaultLogLines, fmt.Sprintf("Number of lines to show from the end of the logs (%d-%d)", common.MinLogLines, common.MaxLogLines))
	fs.StringVar(&o.Since, "since", "", "Show logs since a timestamp (2024-01-01T00:00:00Z) or relative time (10m)")
	fs.StringVar(&o.Until, "until", "", "Show logs before a timestamp or relative time")
	fs.BoolVarP(&o.Timestamps, "timestamps", "t", false, "Show timestamps")
}

var logsCmd = &cobra.Command{
	Use:   "logs CONTAINER",
	Short: "Fetch the logs of a container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		tail := logsOptions.Tail
		res, err := r.Logs(cmd.Context(), runner.LogsInput{
			Container:  args[0],
			Lines:      &tail,
			Since:      logsOptions.Since,
			Until:      logsOptions.Until,
			Timestamps: logsOptions.Timestamps,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), res.Logs)
		return nil
	},
}
