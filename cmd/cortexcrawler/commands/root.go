package commands

import (
	"github.com/midlaj-muhammed/CortexCrawler/lib/telemetry"
	"github.com/spf13/cobra"
)

// the history database used by `history` and `watch` when --db is not given
const defaultHistoryDB = "cortexcrawler.db"

func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "cortexcrawler",
		Short:         "cortexcrawler extracts records from remote APIs described by request files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.InitSlog(verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages.")

	root.AddCommand(
		newExtractCommand(),
		newHistoryCommand(),
		newWatchCommand(),
	)
	return root
}
