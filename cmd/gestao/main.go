package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "gestao",
	Short: "Client and job records for a renovation business, with PDF quote import",
	Long: `gestao keeps the client and job tables for a small renovation
business and fills them from orçamento/recibo PDFs.

Everything is local: a SQLite database in the data directory, a CLI for
day-to-day use, and an optional HTTP/MCP server for dashboards and
assistants.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(importarCmd)
	rootCmd.AddCommand(clientesCmd)
	rootCmd.AddCommand(obrasCmd)
	rootCmd.AddCommand(repararCmd)
	rootCmd.AddCommand(exportarCmd)
	rootCmd.AddCommand(importacoesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
