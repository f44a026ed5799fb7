package list

import (
	"io"
	"log/slog"
	"time"
)

// Recorder receives the outcome of every event-processing step.
// Implemented by telemetry.Metrics.
type Recorder interface {
	EventApplied(kind Kind, duration time.Duration)
	EventRejected(kind Kind, code ErrorCode)
}

// Option configures a List.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	recorder Recorder
}

func defaultConfig() config {
	return config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the logger used for per-event debug output and rejections.
// Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder sets a Recorder notified after each applied or rejected event.
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		c.recorder = r
	}
}
