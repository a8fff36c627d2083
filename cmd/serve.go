package cmd

import (
	"github.com/spf13/cobra"

	"github.com/GFRDINDIA/Helper/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task and bid HTTP API with its Postgres store, Redis status cache and Kafka event stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		app.Run()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
