package cmd

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mensylisir/dockmcp/pkg/docker"
	"github.com/mensylisir/dockmcp/pkg/runner"
	"github.com/mensylisir/dockmcp/pkg/util"
)

type PsOptions struct {
	All     bool
	NoTrunc bool
}

var psOptions = &PsOptions{}

func init() {
	rootCmd.AddCommand(psCmd)
	psCmd.Flags().BoolVarP(&psOptions.All, "all", "a", false, "Show all containers (default shows just running)")
	psCmd.Flags().BoolVar(&psOptions.NoTrunc, "no-trunc", false, "Don't truncate IDs and commands")
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List containers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		res, err := r.List(cmd.Context(), runner.ListInput{All: psOptions.All})
		if err != nil {
			return err
		}
		renderContainers(res.Containers, psOptions.NoTrunc)
		return nil
	},
}

func renderContainers(containers []docker.ContainerRecord, noTrunc bool) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"CONTAINER ID", "NAME", "IMAGE", "STATUS", "PORTS", "COMMAND"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, c := range containers {
		id, command := c.ID, c.Command
		if !noTrunc {
			id = c.ShortID()
			command = util.Truncate(command, 30)
		}
		table.Append([]string{id, c.Name, c.Image, colorStatus(c.Status), c.Ports, command})
	}
	table.Render()
}

func colorStatus(status string) string {
	switch {
	case strings.HasPrefix(status, "Up"):
		if strings.Contains(status, "(unhealthy)") {
			return color.New(color.FgYellow).Sprint(status)
		}
		return color.New(color.FgGreen).Sprint(status)
	case strings.HasPrefix(status, "Exited"), strings.HasPrefix(status, "Dead"):
		return color.New(color.FgRed).Sprint(status)
	default:
		return color.New(color.FgYellow).Sprint(status)
	}
}
