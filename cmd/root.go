package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/larder/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig       string
	flagVersionCheck bool
)

var rootCmd = &cobra.Command{
	Use:   "larder",
	Short: "Grocery tracker with freshness alerts",
	Long:  "larder tracks what is in your fridge and pantry, tells you what to use first, and illustrates it with generated icons.",
	RunE:  runTUI,
	// Usage is noise for runtime failures
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	versionCmd.Flags().BoolVar(&flagVersionCheck, "check", false, "check GitHub for a newer release")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(assetsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "larder %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagVersionCheck {
			return
		}
		if res := update.Check(cmd.Context(), version); res != nil {
			fmt.Fprintf(out, "Update available: v%s\n", res.LatestVersion)
		} else {
			fmt.Fprintln(out, "Up to date.")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
