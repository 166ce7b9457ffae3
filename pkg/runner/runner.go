package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/ports"
)

// Runner reads commands and applies them to a Controller until the user
// quits, the input closes, the session ends or ctx is cancelled.
type Runner struct {
	handler  IOHandler
	logger   *slog.Logger
	interval time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithHandler sets the IO strategy. Defaults to a TextHandler on stdin/stdout.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithStatusInterval reports the status through SystemOutput every d. Zero disables it.
func WithStatusInterval(d time.Duration) Option {
	return func(r *Runner) {
		r.interval = d
	}
}

// NewRunner creates a console runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run drives ctrl. It returns nil after "quit", when the session is closed or
// when ctx is done, and io.EOF when the input closes first.
func (r *Runner) Run(ctx context.Context, ctrl ports.Controller) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan inputResult)
	go func() {
		defer close(lines)
		for {
			text, err := r.handler.Input(ctx)
			select {
			case lines <- inputResult{text: text, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ctrl.Done():
			r.handler.SystemOutput(ctx, "session closed")
			return nil
		case <-tick:
			r.handler.SystemOutput(ctx, FormatStatus(ctrl.Status()))
		case in, ok := <-lines:
			if !ok {
				return nil
			}
			if in.err != nil {
				if errors.Is(in.err, io.EOF) {
					return io.EOF
				}
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("read command: %w", in.err)
			}
			quit, err := r.apply(ctx, ctrl, in.text)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

func (r *Runner) apply(ctx context.Context, ctrl ports.Controller, line string) (bool, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return false, r.handler.Output(ctx, Reply{Command: line, Error: err.Error()})
	}
	reply := Dispatch(ctrl, cmd)
	r.logger.Debug("console command", "cmd", cmd, "error", reply.Error)
	if err := r.handler.Output(ctx, reply); err != nil {
		return false, fmt.Errorf("write reply: %w", err)
	}
	return cmd == CmdQuit, nil
}
