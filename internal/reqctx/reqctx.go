package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const runKey key = 0

// Run identifies one invocation of the tool
type Run struct {
	ID        string
	Command   string
	StartTime time.Time
}

// WithRun attaches a new run to ctx
func WithRun(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, runKey, &Run{
		ID:        generateID(),
		Command:   command,
		StartTime: time.Now(),
	})
}

// FromContext returns the run attached to ctx, or a placeholder
func FromContext(ctx context.Context) *Run {
	if r, ok := ctx.Value(runKey).(*Run); ok {
		return r
	}
	return &Run{
		ID:        "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the global logger tagged with the run id
func Logger(ctx context.Context) zerolog.Logger {
	r := FromContext(ctx)
	return log.With().Str("run_id", r.ID).Logger()
}

// Elapsed is the time since the run started
func (r *Run) Elapsed() time.Duration {
	return time.Since(r.StartTime)
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RunError wraps a pipeline-level error with its run id
type RunError struct {
	RunID string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("[run %s] %v", e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError wraps err with the run id from ctx. A nil err stays nil.
func NewRunError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &RunError{
		RunID: FromContext(ctx).ID,
		Err:   err,
	}
}
