package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/midlaj-muhammed/CortexCrawler/internal/chrono"
	"github.com/midlaj-muhammed/CortexCrawler/internal/extract"
	"github.com/midlaj-muhammed/CortexCrawler/internal/history"
	itelemetry "github.com/midlaj-muhammed/CortexCrawler/internal/telemetry"
	"github.com/midlaj-muhammed/CortexCrawler/lib/telemetry"
	"github.com/spf13/cobra"
)

const perfStatsInterval = 15 * time.Second

func newWatchCommand() *cobra.Command {
	var flags extractorFlags
	var db historyFlags
	var every time.Duration
	var cronSpec string
	var runs int

	cmd := &cobra.Command{
		Use:   "watch <request.json5> [--every <duration> | --cron <schedule>] [--db <history.db>]",
		Short: "Re-runs an extraction on an interval and records every run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if every <= 0 {
				return errors.New("--every must be positive")
			}
			if cronSpec != "" {
				if err := chrono.ValidateSpec(cronSpec); err != nil {
					return err
				}
			}
			ctx := cmd.Context()

			req, err := loadRequest(args[0], flags.endpoint)
			if err != nil {
				return err
			}
			if err := req.Validate(); err != nil {
				return err
			}
			extractor, err := flags.extractor()
			if err != nil {
				return err
			}
			store, err := db.open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			telemetry.InstrumentPerfStats(ctx, perfStatsInterval)

			job := func() {
				watchOnce(ctx, cmd.OutOrStdout(), extractor, store, req)
			}
			if cronSpec != "" {
				return watchOnSchedule(ctx, cronSpec, runs, job)
			}

			ticker := time.NewTicker(every)
			defer ticker.Stop()

			for i := 0; runs <= 0 || i < runs; i++ {
				if i > 0 {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
					}
				}
				job()
				if ctx.Err() != nil {
					return nil
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	db.register(cmd, defaultHistoryDB, "The history database runs are recorded into.")
	cmd.Flags().DurationVar(&every, "every", time.Minute, "The time between the start of two runs.")
	cmd.Flags().StringVar(&cronSpec, "cron", "", "Runs on a cron schedule (ex. \"*/15 * * * *\") instead of every --every.")
	cmd.Flags().IntVar(&runs, "runs", 0, "Stops after this many runs, 0 means run until interrupted.")
	return cmd
}

// watchOnSchedule runs `job` on a cron schedule until ctx is cancelled or
// it has run `runs` times.
func watchOnSchedule(ctx context.Context, spec string, runs int, job func()) error {
	cron := chrono.NewCron(itelemetry.SlogAPI{})
	defer cron.Stop()

	done := make(chan struct{})
	var finish sync.Once
	var count atomic.Int64

	err := cron.Schedule(spec, func() {
		job()
		if runs > 0 && count.Add(1) >= int64(runs) {
			finish.Do(func() { close(done) })
		}
	})
	if err != nil {
		return err
	}
	slog.Info("watching on schedule", "cron", spec)

	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}

func watchOnce(ctx context.Context, w io.Writer, extractor *extract.Extractor, store history.Store, req extract.Request) {
	res, err := extractor.Extract(ctx, req)
	if ctx.Err() != nil {
		return
	}
	recordRun(ctx, store, req, res, err)

	now := time.Now().Format(time.DateTime)
	if err != nil {
		slog.Warn("extraction failed", "err", err)
		fmt.Fprintf(w, "%s  failed: %s\n", now, err)
		return
	}
	suffix := ""
	if res.Partial {
		suffix = " (partial)"
	}
	fmt.Fprintf(
		w, "%s  %d records from %d pages, %s in %s%s\n",
		now,
		res.RecordCount,
		res.PagesFetched,
		humanize.Bytes(uint64(res.ResponseSizeBytes)),
		res.Timings.TotalTime.Round(time.Millisecond),
		suffix,
	)
}
