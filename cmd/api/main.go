package main

import (
	"github.com/spf13/cobra"

	"github.com/wilhelmsk/core/cmd/api/commands"
)

// @title WilhelmSK Plugin API
// @version 1.0
// @description Gauge storage, defaults and path metadata for the WilhelmSK app

// @host localhost:3000
// @BasePath /plugins/wilhelmsk-plugin

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "wilhelmsk",
		Short: "WilhelmSK plugin server",
		Long:  `WilhelmSK stores gauge layouts and default values for the WilhelmSK app and serves path metadata from the Signal K data model.`,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (defaults to $WSK_CONFIG)")

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand(&configFile))
	rootCmd.AddCommand(commands.NewGaugesCommand(&configFile))
	rootCmd.AddCommand(commands.NewDefaultsCommand(&configFile))
	rootCmd.AddCommand(commands.NewTokenCommand(&configFile))
	rootCmd.AddCommand(commands.NewVersionCommand())

	commands.Execute(rootCmd)
}
