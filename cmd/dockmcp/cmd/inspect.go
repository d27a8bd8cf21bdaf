package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"

	"github.com/mensylisir/dockmcp/pkg/docker"
	"github.com/mensylisir/dockmcp/pkg/runner"
)

type InspectOptions struct {
	OutputFormat string
}

var inspectOptions = &InspectOptions{}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectOptions.OutputFormat, "output", "o", "json", "Output format. One of: json|yaml|summary")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect CONTAINER...",
	Short: "Show the docker inspect document of one or more containers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch inspectOptions.OutputFormat {
		case "json", "yaml", "summary":
		default:
			return fmt.Errorf("unknown output format %q, expected json, yaml or summary", inspectOptions.OutputFormat)
		}
		r, err := newRunner()
		if err != nil {
			return err
		}

		docs := make([]json.RawMessage, len(args))
		g, ctx := errgroup.WithContext(cmd.Context())
		for i, id := range args {
			i, id := i, id
			g.Go(func() error {
				res, err := r.Inspect(ctx, runner.InspectInput{Container: id})
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				docs[i] = res.Document
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		return printInspect(docs, inspectOptions.OutputFormat)
	},
}

func printInspect(docs []json.RawMessage, format string) error {
	switch format {
	case "summary":
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "NAME", "IMAGE", "STATE", "RUNNING", "STARTED", "IP"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		for _, doc := range docs {
			s := docker.SummarizeInspect(doc)
			table.Append([]string{s.ID[:min(len(s.ID), 12)], s.Name, s.Image, colorStatus(s.State), strconv.FormatBool(s.Running), s.StartedAt, s.IPAddress})
		}
		table.Render()
		return nil
	case "yaml":
		for i, doc := range docs {
			out, err := yaml.JSONToYAML(doc)
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Println("---")
			}
			fmt.Print(string(out))
		}
		return nil
	default:
		var buf bytes.Buffer
		buf.WriteString("[")
		for i, doc := range docs {
			if i > 0 {
				buf.WriteString(",")
			}
			buf.Write(doc)
		}
		buf.WriteString("]")
		var out bytes.Buffer
		if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
			return err
		}
		fmt.Println(out.String())
		return nil
	}
}
