package main

import (
	"os"

	"github.com/spf13/cobra"

	"parking-registry/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "parking-registry",
	Short:         "keeps the list of vehicles parked in the lot and charges them on the way out",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          shellCmdRunE,
}

func main() {
	rootCmd.PersistentFlags().String("config", "", "Path to a parking.env config file")
	rootCmd.PersistentFlags().String("data-file", "", "Path to the JSON registry file")

	serveCmd.Flags().Int("port", 0, "Port for the HTTP server")
	exportCmd.Flags().StringP("out", "o", "vehicles.xlsx", "Spreadsheet file to write")

	rootCmd.AddCommand(shellCmd, serveCmd, addCmd, removeCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		logging.Logger().Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
