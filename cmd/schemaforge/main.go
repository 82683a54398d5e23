package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schemaforge",
		Short: "Schema-to-CRUD compiler and lifecycle hook runtime",
		Long: `schemaforge compiles declarative YAML entity schemas into Go CRUD
services: persistent model declarations and HTTP handlers wired to a
lifecycle hook registry.`,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
