package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/mcp"
	"github.com/mensylisir/dockmcp/rest/server"
)

type ServeOptions struct {
	Transport string
	Listen    string
}

var serveOptions = &ServeOptions{}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.Transport, "transport", "", "Transport to serve MCP on: stdio or http (default from config, else stdio)")
	serveCmd.Flags().StringVar(&serveOptions.Listen, "listen", "", "Listen address for the http transport (default from config, else "+common.DefaultListenAddress+")")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the container tools over the Model Context Protocol",
	Long: `Serve the container tools over MCP. With the stdio transport, JSON-RPC messages are
read from stdin and written to stdout, one per line; logs go to stderr. With the http
transport, MCP is served on POST /mcp next to a small REST API and /healthz.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport := appConfig.Server.Transport
		if serveOptions.Transport != "" {
			transport = serveOptions.Transport
		}
		listen := appConfig.Server.Listen
		if serveOptions.Listen != "" {
			listen = serveOptions.Listen
		}

		r, err := newRunner()
		if err != nil {
			return err
		}
		log := logger.Get()
		mcpServer := mcp.NewServer(r, Version, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		switch transport {
		case common.TransportStdio:
			return mcpServer.ServeStdio(ctx, os.Stdin, os.Stdout)
		case common.TransportHTTP:
			srv := server.NewAPIServer(&server.Config{
				ListenAddress:   listen,
				ReadTimeout:     appConfig.Server.ReadTimeout.Std(),
				WriteTimeout:    appConfig.Server.WriteTimeout.Std(),
				ShutdownTimeout: appConfig.Server.ShutdownTimeout.Std(),
			}, r, mcpServer, log)
			return srv.Run(ctx)
		default:
			return fmt.Errorf("unknown transport %q, expected %s or %s", transport, common.TransportStdio, common.TransportHTTP)
		}
	},
}
