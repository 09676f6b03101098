package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/allgemeinbildung/abubox/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor page and the drafts API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != "" {
				a.cfg.Server.Port = port
			}

			srv, err := server.New(a.cfg, a.store, a.formatter,
				server.WithLogger(a.logger),
				server.WithSpooler(a.spooler()),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides server.port)")
	return cmd
}
