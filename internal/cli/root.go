// Package cli implements the kestrel command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "kestrel",
	Short: "Invoice compliance validation engine",
	Long: `kestrel validates commercial invoices against a fixed compliance
rule battery and reports a health score, a GREEN/YELLOW/RED level, and
actionable findings.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(getServeCmd())
	rootCmd.AddCommand(getValidateCmd())
	rootCmd.AddCommand(getRulesCmd())
	rootCmd.AddCommand(getSampleCmd())
}
