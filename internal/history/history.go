// Package history keeps a log of extraction runs in sqlite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/midlaj-muhammed/CortexCrawler/internal/extract"
	"github.com/samber/lo"
	"github.com/tursodatabase/libsql-client-go/libsql"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Run is one recorded extraction, successful or not.
type Run struct {
	ID                string
	CreatedAt         time.Time
	Endpoint          string
	Method            string
	Format            string
	PagesFetched      int
	RecordCount       int
	StatusCode        int
	ResponseSizeBytes int64
	RetryCount        int
	RateLimited       bool
	Partial           bool
	TotalTime         time.Duration
	// Error is empty for successful runs.
	Error string
}

type Store struct {
	db  *sql.DB
	qry *Queries
}

type openOptions struct {
	authToken string
}

type Option func(*openOptions)

// WithAuthToken sets the token used to connect to a remote libsql database.
func WithAuthToken(token string) Option {
	return func(o *openOptions) {
		o.authToken = token
	}
}

var remoteSchemes = []string{"libsql", "http", "https", "ws", "wss"}

func isRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return lo.Contains(remoteSchemes, u.Scheme)
}

// Open opens (and creates if needed) the history database at `location`
// which is either a file path, ":memory:" for a database that lives as long
// as the Store, or the url of a remote libsql database.
func Open(ctx context.Context, location string, opts ...Option) (Store, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	var db *sql.DB
	if isRemote(location) {
		var libsqlOpts []libsql.Option
		if o.authToken != "" {
			libsqlOpts = append(libsqlOpts, libsql.WithAuthToken(o.authToken))
		}
		connector, err := libsql.NewConnector(location, libsqlOpts...)
		if err != nil {
			return Store{}, err
		}
		db = sql.OpenDB(connector)
	} else {
		var err error
		db, err = sql.Open("sqlite", location)
		if err != nil {
			return Store{}, err
		}
		// a single connection so ":memory:" is not a different database per connection
		db.SetMaxOpenConns(1)

		if location != ":memory:" {
			_, err = db.ExecContext(ctx, "pragma journal_mode = wal")
			if err != nil {
				db.Close()
				return Store{}, fmt.Errorf("enable wal: %w", err)
			}
		}
	}

	err := applySchema(ctx, db)
	if err != nil {
		db.Close()
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return Store{db: db, qry: New(db)}, nil
}

// applySchema runs the statements of Schema one at a time, remote databases
// only accept a single statement per call.
func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// Record saves `run`, assigning it an id and creation time if it has none.
func (s Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	err := s.qry.InsertRun(ctx, run)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// List returns the `limit` most recent runs, newest first.
func (s Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	return s.qry.ListRuns(ctx, limit)
}

// RunFromResult summarizes the outcome of extract.Extractor.Extract, `res` is
// nil when `err` is not.
func RunFromResult(req extract.Request, res *extract.Result, err error) Run {
	redacted := req.Redacted()
	run := Run{
		Endpoint: redacted.Endpoint,
		Method:   lo.CoalesceOrEmpty(strings.ToUpper(redacted.Method), "GET"),
		Format:   lo.CoalesceOrEmpty(string(redacted.ResponseFormat), string(extract.FormatJSON)),
	}
	if err != nil {
		run.Error = err.Error()
		var pageErr *extract.PageError
		if errors.As(err, &pageErr) {
			run.StatusCode = pageErr.StatusCode
			run.RetryCount = pageErr.RetryCount
			run.RateLimited = pageErr.RateLimited
			run.TotalTime = pageErr.Elapsed
		}
		return run
	}

	run.Format = string(res.Format)
	run.PagesFetched = res.PagesFetched
	run.RecordCount = res.RecordCount
	run.StatusCode = res.StatusCode
	run.ResponseSizeBytes = res.ResponseSizeBytes
	run.RetryCount = res.RetryCount
	run.RateLimited = res.RateLimited
	run.Partial = res.Partial
	run.TotalTime = res.Timings.TotalTime
	return run
}
