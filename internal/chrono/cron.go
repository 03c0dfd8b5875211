// Package chrono runs callbacks on cron schedules.
package chrono

import (
	"fmt"

	"github.com/midlaj-muhammed/CortexCrawler/internal/telemetry"
	"github.com/robfig/cron/v3"
)

// Cron is a running scheduler, a run of a callback is skipped if the
// previous run of the same callback has not finished yet.
type Cron struct {
	cron *cron.Cron
}

func NewCron(tel telemetry.API) Cron {
	logger := cronLogger{tel: tel}
	cronner := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)
	cronner.Start()

	return Cron{cron: cronner}
}

// Schedule runs `callback` on the standard 5 field cron `spec`, descriptors
// such as `@hourly` and `@every 5m` are also accepted.
func (c Cron) Schedule(spec string, callback func()) error {
	_, err := c.cron.AddFunc(spec, callback)
	return err
}

// Stop stops scheduling new runs and waits for the running ones to return.
func (c Cron) Stop() {
	<-c.cron.Stop().Done()
}

// ValidateSpec reports whether `spec` can be given to Schedule.
func ValidateSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i < len(keysAndValues)/2; i++ {
		idx := i * 2
		key := keysAndValues[idx]
		value := keysAndValues[idx+1]
		params = append(params, fmt.Sprintf("%v: %v", key, value))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(
		fmt.Sprintf("cron: %s", msg),
		l.formatParams(keysAndValues)...,
	)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(
		"cron",
		append([]any{fmt.Errorf("%s: %w", msg, err)}, l.formatParams(keysAndValues)...)...,
	)
}
