package runner

import "context"

// IOHandler defines how the console talks to its user.
// This allows switching between Text (human) and JSON (scripted) modes.
type IOHandler interface {
	// Input reads one command line. It returns io.EOF when the input is closed.
	Input(ctx context.Context) (string, error)

	// Output presents the outcome of a command.
	Output(ctx context.Context, reply Reply) error

	// SystemOutput presents a meta-message (periodic status, notices).
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer turns markdown into terminal output.
type ContentRenderer func(string) (string, error)
