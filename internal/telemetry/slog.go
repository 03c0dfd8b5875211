package telemetry

import (
	"fmt"
	"log/slog"
	"time"
)

// SlogAPI implements API using the log/slog package. the report id becomes
// the log message, errors are logged under "err", durations under "elapsed"
// and slog.Attr params are passed through as they are.
type SlogAPI struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (s SlogAPI) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (SlogAPI) formatParams(params []any) []any {
	out := make([]any, 0, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case slog.Attr:
			out = append(out, v)
		case error:
			out = append(out, slog.String("err", v.Error()))
		case time.Duration:
			out = append(out, slog.Duration("elapsed", v))
		default:
			out = append(out, slog.Any(fmt.Sprintf("params.%d", i), v))
		}
	}
	return out
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.logger().Error(id, append([]any{slog.Bool("broken", true)}, s.formatParams(params)...)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.logger().Warn(id, s.formatParams(params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	s.logger().Debug(message, s.formatParams(params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	s.logger().Info(id, "count", count)
}
