package audit

import (
	"context"
	"log/slog"
)

// Publisher is what producers of audit events depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Sink receives events from the recorder's worker goroutine.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// NopPublisher drops every event. Used by tests that do not assert on audit.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

// Recorder buffers events on a channel and forwards them to its sinks from a
// single worker goroutine. Publish never blocks; when the buffer is full the
// event is dropped with a warning.
type Recorder struct {
	ch     chan Event
	sinks  []Sink
	logger *slog.Logger
}

func NewRecorder(buffer int, logger *slog.Logger, sinks ...Sink) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		ch:     make(chan Event, buffer),
		sinks:  sinks,
		logger: logger,
	}
}

func (r *Recorder) Publish(ctx context.Context, e Event) {
	select {
	case r.ch <- e:
	default:
		r.logger.WarnContext(ctx, "audit buffer full, dropping event", "kind", e.Kind)
	}
}

// Run consumes events until ctx is cancelled, then drains whatever is already
// buffered before returning.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case e := <-r.ch:
			r.record(ctx, e)
		case <-ctx.Done():
			for {
				select {
				case e := <-r.ch:
					r.record(context.Background(), e)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

func (r *Recorder) record(ctx context.Context, e Event) {
	for _, s := range r.sinks {
		if err := s.Record(ctx, e); err != nil {
			r.logger.ErrorContext(ctx, "audit sink failed",
				"kind", e.Kind,
				"error", err,
			)
		}
	}
}
