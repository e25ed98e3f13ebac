// Package progress reports read and write progress and times the phases of
// a bridge call.
//
// A Reporter counts processed values. Every Every values, and no more often
// than once per Interval, it hands an Observation to its Observer. Reporting
// never affects the data a reader or writer produces.
package progress

import (
	"time"

	"go.uber.org/zap"
)

// Observation is one progress snapshot.
type Observation struct {
	Op        string
	RowGroup  int
	RowGroups int
	Column    int
	Columns   int
	Row       int64
	Rows      int64
	Percent   float64
}

// Observer receives progress observations.
type Observer interface {
	Observe(Observation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Observation)

// Observe calls f(o).
func (f ObserverFunc) Observe(o Observation) { f(o) }

// LogObserver logs each observation at info level.
func LogObserver(l *zap.Logger) Observer {
	return ObserverFunc(func(o Observation) {
		l.Info("progress",
			zap.String("op", o.Op),
			zap.Int("row_group", o.RowGroup),
			zap.Int("row_groups", o.RowGroups),
			zap.Int("column", o.Column),
			zap.Int("columns", o.Columns),
			zap.Int64("row", o.Row),
			zap.Int64("rows", o.Rows),
			zap.Float64("percent", o.Percent),
		)
	})
}

// Reporter decides when an observation is due. A nil *Reporter is valid and
// never reports.
type Reporter struct {
	every    int64
	interval time.Duration
	total    int64
	observer Observer

	count int64
	last  time.Time
	now   func() time.Time
}

// NewReporter returns a reporter that fires every `every` values, at most
// once per interval. total is the expected number of values and drives
// Percent; a zero interval disables the wall-clock limit.
func NewReporter(every int64, interval time.Duration, total int64, observer Observer) *Reporter {
	return &Reporter{
		every:    every,
		interval: interval,
		total:    total,
		observer: observer,
		now:      time.Now,
	}
}

// Tick counts one processed value and reports whether an observation is due.
func (r *Reporter) Tick() bool {
	if r == nil {
		return false
	}
	r.count++
	if r.observer == nil || r.every <= 0 || r.count%r.every != 0 {
		return false
	}
	if r.interval > 0 {
		now := r.now()
		if !r.last.IsZero() && now.Sub(r.last) < r.interval {
			return false
		}
		r.last = now
	}
	return true
}

// Report fills in Percent and forwards o to the observer.
func (r *Reporter) Report(o Observation) {
	if r == nil || r.observer == nil {
		return
	}
	if r.total > 0 {
		o.Percent = 100 * float64(r.count) / float64(r.total)
	}
	r.observer.Observe(o)
}

// Processed is the number of values counted so far.
func (r *Reporter) Processed() int64 {
	if r == nil {
		return 0
	}
	return r.count
}
