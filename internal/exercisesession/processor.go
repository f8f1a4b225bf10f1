package exercisesession

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edushell/portal/internal/worker"
)

// Processor handles a non-blank code submission. Implementations do not
// execute or grade the code.
type Processor interface {
	Process(ctx context.Context, exerciseID, code string) error
}

// SimulatedProcessor waits for a fixed delay on a bounded worker pool to
// stand in for server-side processing.
type SimulatedProcessor struct {
	delay time.Duration
	pool  *worker.Pool[error]
}

func NewSimulatedProcessor(delay time.Duration, pool *worker.Pool[error]) *SimulatedProcessor {
	return &SimulatedProcessor{delay: delay, pool: pool}
}

func (p *SimulatedProcessor) Process(ctx context.Context, exerciseID, code string) error {
	done, err := p.pool.Submit(ctx, exerciseID, func(ctx context.Context) error {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return fmt.Errorf("queue submission: %w", err)
	}

	select {
	case res := <-done:
		return res.Output
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Console is the developer-facing channel Run writes to.
type Console interface {
	Log(exerciseID, code string) error
}

// LogConsole writes the buffer to the structured logger at debug level.
type LogConsole struct {
	logger *slog.Logger
}

func NewLogConsole(logger *slog.Logger) *LogConsole {
	return &LogConsole{logger: logger}
}

func (c *LogConsole) Log(exerciseID, code string) error {
	c.logger.Debug("code to execute", "exercise_id", exerciseID, "code", code)
	return nil
}
