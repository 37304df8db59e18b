// Package stress wires the pipeline of one stress run: resolve commands,
// generate input, build and run candidate then reference, compare, report.
package stress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/weiihann/incyte/command"
	"github.com/weiihann/incyte/compare"
	"github.com/weiihann/incyte/config"
	"github.com/weiihann/incyte/generator"
	"github.com/weiihann/incyte/harness"
	"github.com/weiihann/incyte/report"
)

// Options are the parameters of one invocation.
type Options struct {
	TestCases       int
	File            string
	GoodFile        string
	InputFile       string
	OutputFile      string
	GoodOutputFile  string
	CustomGenerator string
	Seed            int64
	Timeout         time.Duration
	JSON            bool
}

// Pipeline runs stress tests against a command table.
type Pipeline struct {
	Config *config.Config
	Logger *slog.Logger

	// LoadGenerator opens a custom generator. Defaults to
	// generator.LoadPlugin.
	LoadGenerator func(path string) (generator.Generator, error)

	// Progress receives the built-in generator's progress bar. Nil
	// disables it.
	Progress io.Writer
}

// New creates a Pipeline.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Config:        cfg,
		Logger:        logger,
		LoadGenerator: generator.LoadPlugin,
	}
}

type program struct {
	name   string
	source string
	output string
	spec   *command.Spec
}

// Run executes the whole pipeline and writes the report to w. Nothing is
// written to w when any step fails.
func (p *Pipeline) Run(ctx context.Context, opts Options, w io.Writer) (*report.Report, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := p.Logger.With(slog.String("run_id", runID))

	// Step 1: Resolve both command pairs before touching the filesystem.
	resolver := command.NewResolver(p.Config, logger)

	candidate := &program{name: "candidate", source: opts.File, output: opts.OutputFile}
	reference := &program{name: "reference", source: opts.GoodFile, output: opts.GoodOutputFile}

	for _, prog := range []*program{candidate, reference} {
		spec, err := resolver.Resolve(command.Vars{
			Source: prog.source,
			Input:  opts.InputFile,
			Output: prog.output,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", prog.name, err)
		}

		prog.spec = spec
	}

	// Step 2: Generate the shared input file.
	if err := p.generate(ctx, logger, opts); err != nil {
		return nil, err
	}

	// Step 3: Build and run candidate, then reference.
	results := make([]*harness.Result, 0, 2)

	for _, prog := range []*program{candidate, reference} {
		runner := harness.NewRunner(prog.name, prog.source, prog.spec.Build, logger)

		result, err := runner.Run(ctx, harness.RunConfig{
			Argv:    prog.spec.Run,
			Output:  prog.output,
			Timeout: opts.Timeout,
		})
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	// Step 4: Compare outputs.
	logger.InfoContext(ctx, "comparing outputs",
		slog.String("output", opts.OutputFile),
		slog.String("good_output", opts.GoodOutputFile),
	)

	cmp, err := compare.Files(opts.OutputFile, opts.GoodOutputFile, opts.TestCases)
	if err != nil {
		return nil, fmt.Errorf("compare outputs: %w", err)
	}

	// Step 5: Report.
	rep := report.New(runID, cmp, results[0].Elapsed, results[1].Elapsed)

	if opts.JSON {
		err = report.GenerateJSON(w, rep)
	} else {
		err = report.Generate(w, rep)
	}

	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	logger.InfoContext(ctx, "stress run complete",
		slog.Int("failed", rep.Failed),
		slog.Float64("success_rate", rep.SuccessRate),
	)

	return rep, nil
}

func (p *Pipeline) generate(ctx context.Context, logger *slog.Logger, opts Options) error {
	logger.InfoContext(ctx, "writing test cases",
		slog.String("path", opts.InputFile),
		slog.Int("testcases", opts.TestCases),
	)

	if opts.CustomGenerator != "" {
		gen, err := p.LoadGenerator(opts.CustomGenerator)
		if err != nil {
			return err
		}

		if err := gen.GenerateInput(opts.TestCases, opts.InputFile); err != nil {
			return fmt.Errorf("custom generator %s: %w", opts.CustomGenerator, err)
		}

		return nil
	}

	gen := generator.NewRandom(generator.Config{
		Seed:     opts.Seed,
		Progress: p.Progress,
	})

	summary, err := gen.GenerateFile(opts.TestCases, opts.InputFile)
	if err != nil {
		return fmt.Errorf("generate input: %w", err)
	}

	logger.InfoContext(ctx, "test cases generated",
		slog.String("path", opts.InputFile),
		slog.Int("testcases", summary.TestCases),
		slog.Int("values", summary.Values),
		slog.Int64("bytes", summary.Bytes),
	)

	return nil
}

func validate(opts Options) error {
	if opts.TestCases < 1 {
		return fmt.Errorf("test case count must be at least 1, got %d", opts.TestCases)
	}

	if opts.File == "" {
		return fmt.Errorf("candidate file is required")
	}

	type pathFlag struct{ flag, path string }

	seen := make(map[string]string)
	flags := []pathFlag{
		{"input-file", opts.InputFile},
		{"output-file", opts.OutputFile},
		{"good_output-file", opts.GoodOutputFile},
	}

	for i, f := range flags {
		if f.path == "" {
			return fmt.Errorf("--%s must not be empty", f.flag)
		}

		key, err := canonicalPath(f.path)
		if err != nil {
			return fmt.Errorf("--%s: %w", f.flag, err)
		}

		if other, ok := seen[key]; ok {
			return fmt.Errorf("--%s and --%s both point to %s", other, f.flag, key)
		}

		seen[key] = f.flag

		for _, prev := range flags[:i] {
			if sameExistingFile(prev.path, f.path) {
				return fmt.Errorf("--%s and --%s both point to %s", prev.flag, f.flag, key)
			}
		}
	}

	return nil
}

// canonicalPath returns an absolute path with symlinks in its directory
// resolved. The file itself need not exist.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return abs, nil
	}

	return filepath.Join(dir, filepath.Base(abs)), nil
}

// sameExistingFile reports whether a and b exist and are the same file,
// which catches hard links and symlinked files.
func sameExistingFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}

	bi, err := os.Stat(b)
	if err != nil {
		return false
	}

	return os.SameFile(ai, bi)
}
