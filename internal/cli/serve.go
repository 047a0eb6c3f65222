package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradedash/internal/web"
	"github.com/rustyeddy/tradedash/notify"
)

func newServeCmd(rc *RootConfig) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard",
		Long: `Start the dashboard web server. It stops cleanly on SIGINT or SIGTERM.

Example:
  tradedash serve --addr 0.0.0.0:8501`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config
			n, err := notifierFor(rc, false)
			if err != nil {
				return err
			}

			srv, err := web.New(web.Options{Config: cfg, Notifier: n})
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

// notifierFor builds the configured notifier. When required is false a
// disabled or unconfigured notifier is nil rather than an error.
func notifierFor(rc *RootConfig, required bool) (*notify.Notifier, error) {
	nc := rc.Config.Notify
	if !required && !nc.Enabled {
		return nil, nil
	}
	n, err := notify.New(notify.Options{
		Token:             nc.Token,
		ChatID:            nc.ChatID,
		APIURL:            nc.APIURL,
		Transport:         nc.Transport,
		RequestsPerSecond: nc.RequestsPerSecond,
	})
	if err != nil && !required {
		return nil, nil
	}
	return n, err
}
