// Package cmd wires the CLI: the serve command runs the dashboard web
// server, summarize runs the aggregation pipeline once and prints the
// result.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NdanyuzweGentil/cycling-dashboard/internal/logging"
)

var (
	verbosity  int
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "cycling-dashboard",
	Short: "Cycling club analytics dashboard",
	Long: `Cycling club analytics dashboard loads ride records from CSV or Excel
files, normalizes them onto a canonical schema, and serves summaries,
leaderboards, and time-series charts over HTTP.

Source columns are matched to the canonical schema automatically; explicit
mappings override the guesses when a header is ambiguous.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logging.Level(verbosity))
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v for debug)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
