package extract

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("internal/extract")
var meter = otel.Meter("internal/extract")

var pagesCounter, _ = meter.Int64Counter(
	"extract.pages",
	metric.WithDescription("pages fetched successfully"),
)
var retriesCounter, _ = meter.Int64Counter(
	"extract.retries",
	metric.WithDescription("requests repeated after a 429 response"),
)
var recordsCounter, _ = meter.Int64Counter(
	"extract.records",
	metric.WithDescription("records produced after data mapping"),
)

const (
	report_extractor_validate = "extractor.validate"
	report_extractor_page     = "extractor.fetch-page"
	report_extractor_decode   = "extractor.decode"
	report_extractor_result   = "extractor.result"
)
