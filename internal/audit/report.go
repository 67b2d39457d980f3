// Package audit accounts for every row a run discards, so that data loss is
// countable per source and reason and can be logged or inspected afterwards.
package audit

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/metrics"
)

// MaxSamples bounds the dropped-row details kept per source.
const MaxSamples = 20

// SourceStats is the accounting for one source.
type SourceStats struct {
	Source       string
	RowsRead     int
	RowsKept     int
	LinesSkipped int
	Dropped      map[string]int
	Samples      []*errs.RowValidationError
	Failed       bool
	Err          error
}

// TotalDropped sums dropped rows over all reasons.
func (s *SourceStats) TotalDropped() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Report collects drops and skips during a run. It is safe for concurrent use.
type Report struct {
	mu      sync.Mutex
	sources map[string]*SourceStats
	order   []string
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewReport returns an empty report. m and logger may be nil.
func NewReport(m *metrics.Metrics, logger *zap.Logger) *Report {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Report{sources: make(map[string]*SourceStats), metrics: m, logger: logger}
}

func (r *Report) stats(source string) *SourceStats {
	s, ok := r.sources[source]
	if !ok {
		s = &SourceStats{Source: source, Dropped: make(map[string]int)}
		r.sources[source] = s
		r.order = append(r.order, source)
	}
	return s
}

// Drop records one discarded row at line of file.
func (r *Report) Drop(source, file string, line int, reason string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	s := r.stats(source)
	s.Dropped[reason]++
	if len(s.Samples) < MaxSamples {
		s.Samples = append(s.Samples, &errs.RowValidationError{Source: source, File: file, Line: line, Reason: reason})
	}
	r.mu.Unlock()

	r.metrics.RowDropped(source, reason)
	r.logger.Debug("row dropped",
		zap.String("source", source),
		zap.String("file", file),
		zap.Int("line", line),
		zap.String("reason", reason))
}

// Skip records malformed raw lines skipped by a reader.
func (r *Report) Skip(source string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.mu.Lock()
	r.stats(source).LinesSkipped += n
	r.mu.Unlock()
	r.metrics.LineSkipped(source, n)
}

// Read records rows read and rows kept for a source.
func (r *Report) Read(source string, read, kept int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	s := r.stats(source)
	s.RowsRead += read
	s.RowsKept += kept
	r.mu.Unlock()
}

// Fail marks a source as failed.
func (r *Report) Fail(source string, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	s := r.stats(source)
	s.Failed = true
	s.Err = err
	r.mu.Unlock()
	r.metrics.SourceFailed(source)
}

// Sources returns a snapshot of per-source stats in first-seen order.
func (r *Report) Sources() []SourceStats {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SourceStats, 0, len(r.order))
	for _, name := range r.order {
		s := *r.sources[name]
		s.Dropped = make(map[string]int, len(r.sources[name].Dropped))
		for k, v := range r.sources[name].Dropped {
			s.Dropped[k] = v
		}
		s.Samples = append([]*errs.RowValidationError(nil), r.sources[name].Samples...)
		out = append(out, s)
	}
	return out
}

// Dropped returns the drop count for source and reason.
func (r *Report) Dropped(source, reason string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sources[source]; ok {
		return s.Dropped[reason]
	}
	return 0
}

// String renders a one-line-per-source summary.
func (r *Report) String() string {
	var b strings.Builder
	for _, s := range r.Sources() {
		fmt.Fprintf(&b, "%s: read=%d kept=%d skipped=%d dropped=%d", s.Source, s.RowsRead, s.RowsKept, s.LinesSkipped, s.TotalDropped())
		reasons := make([]string, 0, len(s.Dropped))
		for reason := range s.Dropped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(&b, " [%s=%d]", reason, s.Dropped[reason])
		}
		if s.Failed {
			fmt.Fprintf(&b, " FAILED: %v", s.Err)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Log writes the summary through logger.
func (r *Report) Log(logger *zap.Logger) {
	for _, s := range r.Sources() {
		fields := []zap.Field{
			zap.String("source", s.Source),
			zap.Int("read", s.RowsRead),
			zap.Int("kept", s.RowsKept),
			zap.Int("skipped", s.LinesSkipped),
			zap.Int("dropped", s.TotalDropped()),
			zap.Any("reasons", s.Dropped),
		}
		if s.Failed {
			logger.Error("source failed", append(fields, zap.Error(s.Err))...)
			continue
		}
		logger.Info("source standardized", fields...)
	}
}
