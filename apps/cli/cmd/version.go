package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/apitest/packages/browser"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "apitest version %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", buildTime)
		fmt.Fprintf(cmd.OutOrStdout(), "Drivers: %s\n", strings.Join(browser.Names(), ", "))
	},
}
