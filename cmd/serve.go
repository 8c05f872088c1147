package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	configx "github.com/cliniccall/patientsim/pkg/config"
	"github.com/cliniccall/patientsim/pkg/phone"
	"github.com/cliniccall/patientsim/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server that drives live calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		registry, store, err := newRegistry(ctx)
		if err != nil {
			return err
		}

		phoneClient, err := phone.New(*configx.MustNew[phone.Config]("TWILIO"))
		if err != nil {
			return err
		}

		srv, err := server.New(
			*configx.MustNew[server.Config]("SERVER"),
			registry,
			newRecordingManager(store, phoneClient),
		)
		if err != nil {
			return err
		}

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
