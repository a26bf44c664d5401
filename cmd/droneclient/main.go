// Package main provides the CLI entry point for the drone overlay client.
// Grounded on postalsys-Muti-Metroo's cmd/muti-metroo/main.go (cobra root
// command with a Version field and per-command grouping), scaled down to
// this project's much smaller command surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "droneclient",
		Short:   "Overlay client for the simulated source-routed drone network",
		Version: Version,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
