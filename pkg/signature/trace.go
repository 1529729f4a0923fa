package signature

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
)

// TraceEvent describes one opcode pattern comparison against a method.
type TraceEvent struct {
	Signature string
	Class     string
	Method    string
	Matched   bool
	Scan      PatternScanResult
}

// TraceFunc receives trace events.
type TraceFunc func(TraceEvent)

// tracer forwards events to fn, dropping those that exceed the rate limit.
type tracer struct {
	fn      TraceFunc
	limiter *rate.Limiter
	dropped int
}

func newTracer(fn TraceFunc, limit rate.Limit, burst int) *tracer {
	return &tracer{fn: fn, limiter: rate.NewLimiter(limit, burst)}
}

func (t *tracer) emit(ev TraceEvent) {
	if t == nil {
		return
	}
	if !t.limiter.Allow() {
		t.dropped++
		return
	}
	t.fn(ev)
}

// SlogTrace returns a TraceFunc that logs events at debug level.
func SlogTrace(logger *slog.Logger) TraceFunc {
	return func(ev TraceEvent) {
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		logger.Debug("opcode scan",
			"signature", ev.Signature,
			"class", ev.Class,
			"method", ev.Method,
			"matched", ev.Matched,
			"start", ev.Scan.Start,
			"end", ev.Scan.End,
		)
	}
}
