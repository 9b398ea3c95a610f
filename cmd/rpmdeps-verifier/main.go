package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/utils/logger"
)

var verbose bool

func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rpmdeps-verifier",
		Short: "Verify dependency consistency across package builds",
		Long: `rpmdeps-verifier checks the dependency metadata of a built RPM
package set for policy defects: unexpanded macros in dependency
versions, shared-library dependencies without an explicit versioned
requirement on the providing subpackage, missing epoch prefixes, and
unexplained dependency changes against a prior build of the same
package.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(createVerifyCommand())
	rootCmd.AddCommand(createRulesCommand())
	return rootCmd
}

func main() {
	if err := createRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
