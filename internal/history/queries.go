package history

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const insertRun = `insert into Run(
    id, createdAt, endpoint, method, format,
    pagesFetched, recordCount, statusCode, responseSizeBytes,
    retryCount, rateLimited, partial, totalTimeMs, error
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertRun(ctx context.Context, r Run) error {
	_, err := q.db.ExecContext(
		ctx, insertRun,
		r.ID, r.CreatedAt.UnixMilli(), r.Endpoint, r.Method, r.Format,
		r.PagesFetched, r.RecordCount, r.StatusCode, r.ResponseSizeBytes,
		r.RetryCount, r.RateLimited, r.Partial, r.TotalTime.Milliseconds(), r.Error,
	)
	return err
}

const listRuns = `select
    id, createdAt, endpoint, method, format,
    pagesFetched, recordCount, statusCode, responseSizeBytes,
    retryCount, rateLimited, partial, totalTimeMs, error
from Run
order by createdAt desc
limit ?`

func (q *Queries) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Run
	for rows.Next() {
		var r Run
		var createdAt, totalTimeMs int64
		err := rows.Scan(
			&r.ID, &createdAt, &r.Endpoint, &r.Method, &r.Format,
			&r.PagesFetched, &r.RecordCount, &r.StatusCode, &r.ResponseSizeBytes,
			&r.RetryCount, &r.RateLimited, &r.Partial, &totalTimeMs, &r.Error,
		)
		if err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(createdAt)
		r.TotalTime = time.Duration(totalTimeMs) * time.Millisecond
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
