package processor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// runState holds the counters and log of one run. Only the worker goroutine
// mutates it; the reporting layer sees copies sent as Progress.
type runState struct {
	ctx     context.Context
	logger  *zap.Logger
	updates chan<- Progress

	total     int
	completed int
	log       []LogEntry
	errors    int
	warnings  int
	status    string

	throttle    time.Duration
	now         func() time.Time
	lastReport  time.Time
	lastPercent float64
}

func newRunState(ctx context.Context, opts Options, updates chan<- Progress) *runState {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	throttle := opts.Throttle
	if throttle <= 0 {
		throttle = DefaultThrottle
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}
	return &runState{
		ctx:      ctx,
		logger:   logger,
		updates:  updates,
		throttle: throttle,
		now:      now,
	}
}

// percent never decreases during a run.
func (s *runState) percent() float64 {
	p := 0.0
	if s.total > 0 {
		p = float64(s.completed) / float64(s.total) * 100
	}
	if p > 100 {
		p = 100
	}
	if p < s.lastPercent {
		p = s.lastPercent
	}
	s.lastPercent = p
	return p
}

func (s *runState) snapshot() Progress {
	return Progress{
		Status:    s.status,
		Total:     s.total,
		Completed: s.completed,
		Percent:   s.percent(),
		Errors:    s.errors,
		Warnings:  s.warnings,
	}
}

// report sends a snapshot at most once per throttle window unless forced.
// Unforced snapshots are dropped when the reader is behind.
func (s *runState) report(status string, forced bool) {
	s.status = status
	if s.updates == nil {
		return
	}
	now := s.now()
	if !forced && !s.lastReport.IsZero() && now.Sub(s.lastReport) < s.throttle {
		return
	}
	s.lastReport = now
	s.send(s.snapshot(), forced)
}

func (s *runState) send(p Progress, block bool) {
	if block && s.ctx.Err() == nil {
		select {
		case s.updates <- p:
		case <-s.ctx.Done():
		}
		return
	}
	select {
	case s.updates <- p:
	default:
	}
}

func (s *runState) finish(status string) {
	s.status = status
	if s.updates == nil {
		return
	}
	p := s.snapshot()
	p.Done = true
	s.send(p, true)
}

func (s *runState) logError(message, path string, err error) {
	kind, reason := Classify(err)
	s.record(LogEntry{Message: message, Reason: reason, Kind: kind, Path: path})
}

func (s *runState) record(entry LogEntry) {
	s.log = append(s.log, entry)
	fields := []zap.Field{zap.String("path", entry.Path), zap.String("reason", entry.Reason)}
	if entry.Warning {
		s.warnings++
		s.logger.Warn(entry.Message, fields...)
		return
	}
	s.errors++
	s.logger.Error(entry.Message, append(fields, zap.Stringer("kind", entry.Kind))...)
}

func (s *runState) warn(message, reason, path string) {
	s.record(LogEntry{Warning: true, Message: message, Reason: reason, Path: path})
}
