// stockwatch - a live terminal watchlist for stock quotes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stockwatch",
		Short: "Live stock watchlist in the terminal",
		Long: `stockwatch tracks a list of stock symbols, refreshes their quotes in the
background and shows them in a live terminal dashboard.`,
		SilenceUsage: true,
		RunE:         runDashboard,
	}

	// Flags
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.stockwatch/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr instead of the log file")

	// Subcommands
	root.AddCommand(versionCmd())
	root.AddCommand(addCmd())
	root.AddCommand(removeCmd())
	root.AddCommand(listCmd())
	root.AddCommand(refreshCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(configCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockwatch version %s\n", version)
		},
	}
}
