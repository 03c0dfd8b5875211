package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/midlaj-muhammed/CortexCrawler/internal/history"
	"github.com/midlaj-muhammed/CortexCrawler/lib/textutil"
	"github.com/spf13/cobra"
)

const maxErrorColumn = 60

// historyFlags select the history database of a command.
type historyFlags struct {
	location string
	token    string
}

func (f *historyFlags) register(cmd *cobra.Command, defaultLocation, usage string) {
	cmd.Flags().StringVar(&f.location, "db", defaultLocation, usage+" A file path or the url of a remote libsql database.")
	cmd.Flags().StringVar(&f.token, "db-token", "", "The auth token of a remote libsql history database.")
}

func (f historyFlags) open(ctx context.Context) (history.Store, error) {
	var opts []history.Option
	if f.token != "" {
		opts = append(opts, history.WithAuthToken(f.token))
	}
	store, err := history.Open(ctx, f.location, opts...)
	if err != nil {
		return history.Store{}, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func newHistoryCommand() *cobra.Command {
	var db historyFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "history [--db <history.db>] [--limit <n>]",
		Short: "Lists past extraction runs, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"When", "Method", "Endpoint", "Format", "Status", "Records", "Pages", "Size", "Retries", "Took", "Error"})
			for _, r := range runs {
				errText, _ := textutil.Clamp(r.Error, maxErrorColumn)
				status := fmt.Sprint(r.StatusCode)
				if r.Partial {
					status += " (partial)"
				}
				t.AppendRow(table.Row{
					humanize.Time(r.CreatedAt),
					r.Method,
					r.Endpoint,
					r.Format,
					status,
					r.RecordCount,
					r.PagesFetched,
					humanize.Bytes(uint64(r.ResponseSizeBytes)),
					r.RetryCount,
					r.TotalTime.Round(time.Millisecond),
					errText,
				})
			}
			t.Render()
			return nil
		},
	}
	db.register(cmd, defaultHistoryDB, "The history database to read.")
	cmd.Flags().IntVar(&limit, "limit", 20, "The maximum number of runs to list.")
	return cmd
}
