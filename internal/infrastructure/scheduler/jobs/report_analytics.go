// Package jobs contains the analytics worker's periodic jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// CountSource reports how often each analytics event was seen.
type CountSource interface {
	Counts(ctx context.Context) (map[shared.EventType]int64, error)
}

// ReportAnalyticsJob logs the event totals and the change since its last run.
type ReportAnalyticsJob struct {
	source CountSource
	logger *slog.Logger
	last   map[shared.EventType]int64
}

// NewReportAnalyticsJob creates a new ReportAnalyticsJob.
func NewReportAnalyticsJob(source CountSource, logger *slog.Logger) *ReportAnalyticsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportAnalyticsJob{
		source: source,
		logger: logger.With("job", "report_analytics"),
		last:   map[shared.EventType]int64{},
	}
}

// Name implements scheduler.Job.
func (j *ReportAnalyticsJob) Name() string {
	return "report_analytics"
}

// Deltas is one line of the report.
type Deltas struct {
	Type  shared.EventType
	Total int64
	Delta int64
}

// Run implements scheduler.Job. The scheduler never runs it concurrently
// with itself, so last needs no lock.
func (j *ReportAnalyticsJob) Run(ctx context.Context) error {
	_, err := j.Report(ctx)
	return err
}

// Report reads the counts and returns them sorted by event type.
func (j *ReportAnalyticsJob) Report(ctx context.Context) ([]Deltas, error) {
	counts, err := j.source.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("report_analytics: read counts: %w", err)
	}

	lines := make([]Deltas, 0, len(counts))
	var total, delta int64
	for t, n := range counts {
		d := n - j.last[t]
		lines = append(lines, Deltas{Type: t, Total: n, Delta: d})
		total += n
		delta += d
	}
	sort.Slice(lines, func(a, b int) bool { return lines[a].Type < lines[b].Type })
	j.last = counts

	if delta == 0 {
		j.logger.Debug("no new analytics events", "total", total)
		return lines, nil
	}
	attrs := []any{"total", total, "new", delta}
	for _, l := range lines {
		if l.Delta != 0 {
			attrs = append(attrs, string(l.Type), l.Delta)
		}
	}
	j.logger.Info("analytics report", attrs...)
	return lines, nil
}
