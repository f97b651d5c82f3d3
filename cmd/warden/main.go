package main

import (
	"os"

	"github.com/spf13/cobra"

	"warden/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - session and token lifecycle service",
		Long:  `Warden issues, validates, refreshes, and revokes user sessions and their access tokens.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
