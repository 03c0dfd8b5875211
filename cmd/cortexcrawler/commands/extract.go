package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/midlaj-muhammed/CortexCrawler/internal/extract"
	"github.com/midlaj-muhammed/CortexCrawler/internal/history"
	"github.com/midlaj-muhammed/CortexCrawler/lib/configutil"
	"github.com/midlaj-muhammed/CortexCrawler/lib/restyutil"
	"github.com/spf13/cobra"
)

// extractorFlags are shared by every command that runs extractions.
type extractorFlags struct {
	endpoint string
	dump     string
	rps      float64
}

func (f *extractorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "Overrides the endpoint of the request file.")
	cmd.Flags().StringVar(&f.dump, "dump", "", "Writes every http request/response pair to this directory.")
	cmd.Flags().Float64Var(&f.rps, "rps", 0, "Limits the number of requests sent per second, 0 means no limit.")
}

func (f *extractorFlags) extractor() (*extract.Extractor, error) {
	var opts []extract.Option
	if f.rps > 0 {
		opts = append(opts, extract.WithRateLimit(f.rps))
	}
	if f.dump != "" {
		output, err := restyutil.NewFilesystemOutput(f.dump)
		if err != nil {
			return nil, fmt.Errorf("create dump directory: %w", err)
		}
		opts = append(opts, extract.WithInstrumentOutput(output))
	}
	return extract.NewExtractor(opts...), nil
}

// loadRequest reads a request file, values in <name>.local.json5 take
// precedence so credentials can be kept out of the shared file.
func loadRequest(path, endpoint string) (extract.Request, error) {
	req, err := configutil.ReadConfig[extract.Request](path)
	if errors.Is(err, os.ErrNotExist) {
		return extract.Request{}, fmt.Errorf("request file %s does not exist", path)
	}
	if err != nil {
		return extract.Request{}, fmt.Errorf("read request file %s: %w", path, err)
	}
	if endpoint != "" {
		req.Endpoint = endpoint
	}
	return req, nil
}

// recordRun saves the outcome of an extraction, failing to do so is only logged.
func recordRun(ctx context.Context, store history.Store, req extract.Request, res *extract.Result, err error) {
	run, recordErr := store.Record(ctx, history.RunFromResult(req, res, err))
	if recordErr != nil {
		slog.Warn("failed to record run", "err", recordErr)
		return
	}
	slog.Debug("recorded run", "id", run.ID)
}

func newExtractCommand() *cobra.Command {
	var flags extractorFlags
	var db historyFlags
	var printJSON bool

	cmd := &cobra.Command{
		Use:   "extract <request.json5> [--endpoint <url>] [--db <history.db>] [--dump <dir>] [--json]",
		Short: "Runs the extraction described by a request file and prints the result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			req, err := loadRequest(args[0], flags.endpoint)
			if err != nil {
				return err
			}
			extractor, err := flags.extractor()
			if err != nil {
				return err
			}

			var store *history.Store
			if db.location != "" {
				s, err := db.open(ctx)
				if err != nil {
					return err
				}
				defer s.Close()
				store = &s
			}

			slog.Debug("extracting", "request", req.Redacted())
			res, err := extractor.Extract(ctx, req)
			if store != nil {
				recordRun(ctx, *store, req, res, err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if printJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Fprintln(out, res.RenderedText)
			fmt.Fprintln(out)
			writeMetrics(out, res)
			for _, w := range res.Warnings {
				slog.Warn("extraction warning", "page", w.Page, "kind", w.Kind, "message", w.Message)
			}
			return nil
		},
	}
	flags.register(cmd)
	db.register(cmd, "", "Records the run into this history database.")
	cmd.Flags().BoolVar(&printJSON, "json", false, "Prints the result as JSON instead of text.")
	return cmd
}

func writeMetrics(w io.Writer, res *extract.Result) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Records", res.RecordCount},
		{"Pages fetched", res.PagesFetched},
		{"Status code", res.StatusCode},
		{"Response size", humanize.Bytes(uint64(res.ResponseSizeBytes))},
		{"Request time", res.Timings.RequestTime.Round(time.Millisecond)},
		{"Parse time", res.Timings.ParseTime.Round(time.Millisecond)},
		{"Total time", res.Timings.TotalTime.Round(time.Millisecond)},
		{"Rate limited", res.RateLimited},
		{"Retries", res.RetryCount},
		{"Partial", res.Partial},
		{"Structure", res.DataStructureDescription},
	})
	t.Render()
}
