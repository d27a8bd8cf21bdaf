package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the Docker CLI and daemon are usable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		info, probeErr := r.Info(cmd.Context())

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Docker CLI:     %s\n", info.Binary)
		if info.ClientVersion != "" {
			fmt.Fprintf(out, "Client version: %s\n", info.ClientVersion)
		} else {
			fmt.Fprintf(out, "Client version: %s\n", red("unavailable"))
		}
		if !info.Reachable {
			fmt.Fprintf(out, "Daemon:         %s\n", red("unreachable"))
			return probeErr
		}
		fmt.Fprintf(out, "Daemon:         %s (server %s)\n", green("reachable"), info.ServerVersion)
		if !info.Supported {
			fmt.Fprintf(out, "Support:        %s\n", yellow(info.Problem))
			return fmt.Errorf("docker daemon is not supported: %s", info.Problem)
		}
		fmt.Fprintf(out, "Support:        %s (minimum %s)\n", green("ok"), info.MinimumVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
