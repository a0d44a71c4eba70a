package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/apitest/packages/core/config"
	"github.com/abdul-hamid-achik/apitest/packages/journal"
	"github.com/abdul-hamid-achik/apitest/packages/output"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show exchanges recorded in the journal",
	Long: `Show the requests recorded by "apitest send --journal", newest first.

Examples:
  apitest history --journal apitest.db
  apitest history --limit 5 -v
  apitest history -o json`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

var (
	historyConfigFlag  string
	historyJournalFlag string
	historyLimitFlag   int
	historyVerboseFlag bool
	historyNoColorFlag bool
	historyOutputFlag  string
)

func init() {
	historyCmd.Flags().StringVar(&historyConfigFlag, "config", getEnvString("APITEST_CONFIG", ""), "Path to config file (env: APITEST_CONFIG)")
	historyCmd.Flags().StringVar(&historyJournalFlag, "journal", getEnvString("APITEST_JOURNAL", ""), "SQLite journal to read (env: APITEST_JOURNAL)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", getEnvInt("APITEST_HISTORY_LIMIT", 20), "Maximum number of exchanges to show, 0 for all (env: APITEST_HISTORY_LIMIT)")
	historyCmd.Flags().BoolVarP(&historyVerboseFlag, "verbose", "v", false, "Include the start of each response body")
	historyCmd.Flags().BoolVar(&historyNoColorFlag, "no-color", getEnvBool("APITEST_NO_COLOR", false), "Disable colored output (env: APITEST_NO_COLOR)")
	historyCmd.Flags().StringVarP(&historyOutputFlag, "output", "o", getEnvString("APITEST_OUTPUT", output.FormatConsole), "Output format: console, json (env: APITEST_OUTPUT)")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(historyConfigFlag)
	if err != nil {
		return exitWith(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	if historyJournalFlag != "" {
		cfg.Journal = historyJournalFlag
	}
	if cfg.Journal == "" {
		return exitWith(ExitConfigError, fmt.Errorf("no journal configured: pass --journal or set journal in the config file"))
	}

	formatter, err := output.New(historyOutputFlag, cmd.OutOrStdout(), historyVerboseFlag, historyNoColorFlag || cfg.GetNoColor())
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	j, err := journal.Open(cfg.Journal)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	defer j.Close()

	entries, err := j.List(cmd.Context(), historyLimitFlag)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	formatter.FormatHistory(entries)
	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}
	return nil
}
