package extract

import (
	"encoding/json"
	"time"
)

type WarningKind string

const (
	// WarningPageFailed means pagination stopped early because a page after the first failed.
	WarningPageFailed WarningKind = "page_failed"
	// WarningDecodeDegraded means a page could not be decoded and was kept as raw text.
	WarningDecodeDegraded WarningKind = "decode_degraded"
)

type Warning struct {
	Page    int         `json:"page"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

type Timings struct {
	RequestTime time.Duration
	ParseTime   time.Duration
	TotalTime   time.Duration
}

func (t Timings) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		RequestTime int64 `json:"requestTime"`
		ParseTime   int64 `json:"parseTime"`
		TotalTime   int64 `json:"totalTime"`
	}{
		RequestTime: t.RequestTime.Milliseconds(),
		ParseTime:   t.ParseTime.Milliseconds(),
		TotalTime:   t.TotalTime.Milliseconds(),
	})
}

type Result struct {
	RenderedText string `json:"renderedText"`
	RecordCount  int    `json:"recordCount"`
	PagesFetched int    `json:"pagesFetched"`
	// StatusCode is the status of the last page that was fetched successfully.
	StatusCode               int     `json:"statusCode"`
	ResponseSizeBytes        int64   `json:"responseSizeBytes"`
	Timings                  Timings `json:"timings"`
	RateLimited              bool    `json:"rateLimited"`
	RetryCount               int     `json:"retryCount"`
	DataStructureDescription string  `json:"dataStructureDescription"`

	// Partial is set when a page after the first failed, see Warnings for the cause.
	Partial  bool      `json:"partial"`
	Warnings []Warning `json:"warnings,omitempty"`

	Format  Format `json:"format"`
	Records []any  `json:"-"`
}
