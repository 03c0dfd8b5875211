package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/midlaj-muhammed/CortexCrawler/internal/telemetry"
	"github.com/midlaj-muhammed/CortexCrawler/lib/restyutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const userAgent = "CortexCrawler/1.0"

type options struct {
	tel         telemetry.API
	retryDelay  time.Duration
	maxAttempts int
	rateLimit   float64
	output      restyutil.InstrumentOutput
	httpClient  *http.Client
}

type Option func(*options)

// WithTelemetry sets the API warnings and failures are reported to, the
// default reports through slog.
func WithTelemetry(tel telemetry.API) Option {
	return func(o *options) {
		o.tel = tel
	}
}

// WithRetryDelay overrides the delay between attempts at a rate limited page.
func WithRetryDelay(delay time.Duration) Option {
	return func(o *options) {
		if delay > 0 {
			o.retryDelay = delay
		}
	}
}

// WithMaxAttempts overrides how many times a rate limited page is attempted.
func WithMaxAttempts(attempts int) Option {
	return func(o *options) {
		if attempts > 0 {
			o.maxAttempts = attempts
		}
	}
}

// WithRateLimit spaces out requests so no more than `rps` are sent per second.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		o.rateLimit = rps
	}
}

// WithInstrumentOutput dumps every request/response pair to `output`.
func WithInstrumentOutput(output restyutil.InstrumentOutput) Option {
	return func(o *options) {
		o.output = output
	}
}

// WithHTTPClient sets the underlying client, ex. to use a custom transport.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// Extractor fetches, decodes and aggregates the pages of remote API endpoints.
// it is safe for concurrent use, extractions share nothing but the http
// client and rate limiter.
type Extractor struct {
	http        *resty.Client
	tel         telemetry.API
	retryDelay  time.Duration
	maxAttempts int
}

func NewExtractor(opts ...Option) *Extractor {
	o := options{
		tel:         telemetry.SlogAPI{},
		retryDelay:  DefaultRetryDelay,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(&o)
	}
	tel := telemetry.NewScopedAPI("extract", o.tel)

	client := resty.New()
	if o.httpClient != nil {
		client = resty.NewWithClient(o.httpClient)
	}
	client.SetHeader("User-Agent", userAgent)

	if o.rateLimit > 0 {
		burst := max(1, int(o.rateLimit))
		rateLimiter := rate.NewLimiter(rate.Limit(o.rateLimit), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}
	restyutil.InstrumentClient(client, tracer, o.output)
	telemetry.InstrumentResty(client, tel)

	return &Extractor{
		http:        client,
		tel:         tel,
		retryDelay:  o.retryDelay,
		maxAttempts: o.maxAttempts,
	}
}

// Extract runs one extraction. a *ConfigError is returned before any request
// is made if `req` is invalid, a *PageError if the first page could not be
// fetched. failures of later pages produce a partial Result instead.
func (e *Extractor) Extract(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "extractor:Extract")
	defer span.End()

	start := time.Now()

	req, err := req.normalize()
	if err != nil {
		e.tel.ReportWarning(report_extractor_validate, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("endpoint", req.Redacted().Endpoint),
		attribute.String("format", string(req.ResponseFormat)),
		attribute.Bool("pagination", req.Pagination.Enabled),
	)

	headers, err := buildHeaders(req)
	if err != nil {
		return nil, err
	}
	pageURL, err := firstURL(req.Endpoint, req.Pagination)
	if err != nil {
		return nil, configError("endpoint", "%s", err.Error())
	}

	result := &Result{Format: req.ResponseFormat}
	stats := &fetchStats{}
	var records []any

	for pageIndex := 0; ; pageIndex++ {
		if pageIndex > 0 && ctx.Err() != nil {
			err := fmt.Errorf("extraction stopped after %d pages: %w", result.PagesFetched, ctx.Err())
			span.RecordError(err)
			span.SetStatus(codes.Error, "cancelled")
			return nil, err
		}

		page, err := e.fetchPage(ctx, req, headers, pageURL, pageIndex+1, stats)
		if err != nil {
			e.tel.ReportWarning(report_extractor_page, err)
			if pageIndex == 0 {
				span.RecordError(err)
				span.SetStatus(codes.Error, "first page failed")
				return nil, err
			}
			result.Partial = true
			result.Warnings = append(result.Warnings, Warning{
				Page:    pageIndex + 1,
				Kind:    WarningPageFailed,
				Message: err.Error(),
			})
			break
		}

		result.PagesFetched++
		result.StatusCode = page.statusCode
		result.ResponseSizeBytes += page.size
		result.Timings.ParseTime += page.parseTime
		if page.warning != nil {
			result.Warnings = append(result.Warnings, *page.warning)
		}
		records = appendRecords(records, page.records)
		pagesCounter.Add(ctx, 1)

		next, ok := nextURL(page.outcome, req.Pagination, pageIndex)
		if !ok {
			break
		}
		pageURL = next
	}

	result.Records = records
	result.RecordCount = len(records)
	result.RetryCount = stats.retryCount
	result.RateLimited = stats.rateLimited
	result.Timings.RequestTime = stats.requestTime
	result.DataStructureDescription = describe(records)
	result.RenderedText = render(records, req.ResponseFormat, result.PagesFetched)
	result.Timings.TotalTime = time.Since(start)

	recordsCounter.Add(ctx, int64(result.RecordCount))
	retriesCounter.Add(ctx, int64(result.RetryCount))
	e.tel.ReportCount(report_extractor_result, int64(result.RecordCount))
	span.SetAttributes(
		attribute.Int("records", result.RecordCount),
		attribute.Int("pages", result.PagesFetched),
		attribute.Bool("partial", result.Partial),
	)

	return result, nil
}

type fetchedPage struct {
	outcome    pageOutcome
	records    any
	statusCode int
	size       int64
	parseTime  time.Duration
	warning    *Warning
}

func (e *Extractor) fetchPage(
	ctx context.Context,
	req Request,
	headers http.Header,
	pageURL string,
	pageNumber int,
	stats *fetchStats,
) (fetchedPage, error) {
	ctx, span := tracer.Start(ctx, "extractor:fetchPage")
	defer span.End()
	span.SetAttributes(attribute.Int("page", pageNumber))

	start := time.Now()
	retriesBefore := stats.retryCount
	timeout := time.Duration(req.TimeoutMs) * time.Millisecond

	res, err := sendWithRetry(ctx, e.retryDelay, e.maxAttempts, stats, func(ctx context.Context) (*resty.Response, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		r := e.http.R().
			SetContext(attemptCtx).
			SetHeaderMultiValues(headers)
		if req.hasBody() {
			if headers.Get("Content-Type") == "" && json.Valid([]byte(req.Body)) {
				r.SetHeader("Content-Type", "application/json")
			}
			r.SetBody(req.Body)
		}
		return r.Execute(req.Method, pageURL)
	})
	if err != nil {
		pageErr := &PageError{
			Page:        pageNumber,
			URL:         pageURL,
			Elapsed:     time.Since(start),
			RetryCount:  stats.retryCount,
			RateLimited: stats.rateLimited,
			Err:         err,
		}
		if res != nil {
			pageErr.StatusCode = res.StatusCode()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fetchedPage{}, pageErr
	}
	span.SetAttributes(attribute.Int("retries", stats.retryCount-retriesBefore))

	body := res.Body()
	parseStart := time.Now()
	page := fetchedPage{
		statusCode: res.StatusCode(),
		size:       int64(len(body)),
	}

	text := bodyText(body, res.Header().Get("Content-Type"), req.ResponseFormat)
	decoded, err := decode(text, req.ResponseFormat)
	if err != nil {
		e.tel.ReportWarning(report_extractor_decode, pageNumber, err)
		decoded = string(text)
		page.warning = &Warning{
			Page:    pageNumber,
			Kind:    WarningDecodeDegraded,
			Message: err.Error(),
		}
	}
	page.outcome = pageOutcome{
		url:    pageURL,
		header: res.Header(),
		body:   decoded,
	}
	page.records = applyMapping(decoded, req.DataMapping)
	if items, ok := page.records.([]any); ok && len(items) == 0 {
		page.outcome.empty = true
	}
	page.parseTime = time.Since(parseStart)

	return page, nil
}

// IsConfigError reports whether err was caused by an invalid Request.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}
