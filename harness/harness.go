package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// RunConfig holds parameters for a single program execution.
type RunConfig struct {
	// Argv is the run command; "<" and ">" tokens redirect stdin and
	// stdout to files.
	Argv []string
	// Output is the file the program is expected to write, recorded in
	// the Result.
	Output string
	// Timeout bounds the run. Zero means no limit.
	Timeout time.Duration
}

// Runner builds and runs one program.
type Runner struct {
	Name   string
	Source string
	Build  []string
	Logger *slog.Logger
}

// NewRunner creates a Runner for the named program. build may be nil for
// interpreted languages.
func NewRunner(name, source string, build []string, logger *slog.Logger) *Runner {
	return &Runner{
		Name:   name,
		Source: source,
		Build:  build,
		Logger: logger.With(slog.String("program", name)),
	}
}

// Run compiles the program when it has a build command, then executes it
// and measures the wall-clock time of the execution alone.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if r.Build != nil {
		if err := Build(ctx, r.Logger, r.Name, r.Build); err != nil {
			return nil, err
		}
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	redir, err := parseRedirects(cfg.Argv)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", r.Name, err)
	}

	cmd := exec.CommandContext(ctx, redir.argv[0], redir.argv[1:]...)
	cmd.Stdout = io.Discard

	if redir.stdin != "" {
		in, err := os.Open(redir.stdin)
		if err != nil {
			return nil, fmt.Errorf("open stdin %s: %w", redir.stdin, err)
		}
		defer in.Close()

		cmd.Stdin = in
	}

	if redir.stdout != "" {
		out, err := os.Create(redir.stdout)
		if err != nil {
			return nil, fmt.Errorf("create stdout %s: %w", redir.stdout, err)
		}
		defer out.Close()

		cmd.Stdout = out
	}

	var stderr tailBuffer
	cmd.Stderr = &stderr

	r.Logger.InfoContext(ctx, "running",
		slog.String("source", r.Source),
		slog.Any("command", cfg.Argv),
	)

	start := time.Now()
	runErr := cmd.Run()
	end := time.Now()

	if runErr != nil {
		return nil, newExitError(r.Name, PhaseRun, cfg.Argv, stderr.String(), runErr)
	}

	result := &Result{
		Name:    r.Name,
		Source:  r.Source,
		Output:  cfg.Output,
		Start:   start,
		End:     end,
		Elapsed: end.Sub(start),
	}

	r.Logger.InfoContext(ctx, "finished",
		slog.Duration("wall_time", result.Elapsed),
	)

	return result, nil
}

type redirects struct {
	argv   []string
	stdin  string
	stdout string
}

// parseRedirects strips "< file" and "> file" (or "<file", ">file") from
// argv.
func parseRedirects(argv []string) (redirects, error) {
	var r redirects

	for i := 0; i < len(argv); i++ {
		tok := argv[i]

		var target *string

		switch {
		case strings.HasPrefix(tok, "<"):
			target = &r.stdin
		case strings.HasPrefix(tok, ">"):
			target = &r.stdout
		default:
			r.argv = append(r.argv, tok)

			continue
		}

		path := tok[1:]
		if path == "" {
			if i+1 >= len(argv) {
				return r, fmt.Errorf("redirect %q without a file", tok)
			}

			i++
			path = argv[i]
		}

		*target = path
	}

	if len(r.argv) == 0 {
		return r, fmt.Errorf("empty command")
	}

	return r, nil
}
