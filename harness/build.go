package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// Phase names the step a subprocess belongs to.
type Phase string

const (
	PhaseBuild Phase = "build"
	PhaseRun   Phase = "run"
)

// stderrTail bounds the captured stderr quoted in an ExitError.
const stderrTail = 4096

// ExitError reports a build or run command that exited unsuccessfully.
type ExitError struct {
	Program  string
	Phase    Phase
	Argv     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Phase, e.Program, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\nstderr: " + s
	}

	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Build runs the build argv for program and waits for it. Its stdout is
// discarded.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	program string,
	argv []string,
) error {
	if len(argv) == 0 {
		return fmt.Errorf("build %s: empty command", program)
	}

	logger.InfoContext(ctx, "compiling",
		slog.String("program", program),
		slog.Any("command", argv),
	)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stderr tailBuffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return newExitError(program, PhaseBuild, argv, stderr.String(), err)
	}

	logger.DebugContext(ctx, "compiled", slog.String("program", program))

	return nil
}

func newExitError(
	program string,
	phase Phase,
	argv []string,
	stderr string,
	err error,
) *ExitError {
	code := -1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}

	return &ExitError{
		Program:  program,
		Phase:    phase,
		Argv:     argv,
		ExitCode: code,
		Stderr:   stderr,
		Err:      err,
	}
}

// tailBuffer keeps the last stderrTail bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)

	if over := t.buf.Len() - stderrTail; over > 0 {
		t.buf.Next(over)
	}

	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
