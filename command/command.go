// Package command resolves the build and run argv of a program from its
// file extension and the configured command templates.
package command

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/weiihann/incyte/config"
)

// Template placeholders expanded per token.
const (
	PlaceholderSource = "{src}"
	PlaceholderBinary = "{bin}"
	PlaceholderInput  = "{input}"
	PlaceholderOutput = "{output}"
)

// Spec is the resolved pair of commands for one program. Build is nil for
// interpreted languages.
type Spec struct {
	Language string
	Build    []string
	Run      []string
}

// Vars are the values substituted into a template.
type Vars struct {
	Source string
	Binary string
	Input  string
	Output string
}

// ResolveError reports that no usable command is configured for an
// extension.
type ResolveError struct {
	Extension string
	Missing   string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot find %s command for extension %q",
		e.Missing, e.Extension)
}

// Detect maps a source path to its configuration entry. Extensions are
// matched case-sensitively, so main.PY falls back to other.
func Detect(path string) string {
	switch filepath.Ext(path) {
	case ".py":
		return config.Python
	case ".cpp", ".cc", ".cxx":
		return config.Cpp
	default:
		return config.Other
	}
}

// BinaryPath is the default {bin} for a source path: the path without its
// extension, made explicitly relative so exec does not search $PATH.
func BinaryPath(src string) string {
	bin := strings.TrimSuffix(src, filepath.Ext(src))
	if bin == src {
		bin += ".bin"
	}

	if !strings.ContainsRune(bin, filepath.Separator) {
		bin = "." + string(filepath.Separator) + bin
	}

	return bin
}

// Resolver turns configured templates into argv.
type Resolver struct {
	Config *config.Config
	Logger *slog.Logger
}

// NewResolver creates a Resolver over cfg.
func NewResolver(cfg *config.Config, logger *slog.Logger) *Resolver {
	return &Resolver{Config: cfg, Logger: logger}
}

// Resolve returns the commands for the program at vars.Source.
func (r *Resolver) Resolve(vars Vars) (*Spec, error) {
	ext := filepath.Ext(vars.Source)
	lang := Detect(vars.Source)
	entry := r.Config.Lookup(lang)

	buildTpl := strings.TrimSpace(entry.Build)
	runTpl := strings.TrimSpace(entry.Run)

	switch {
	case buildTpl == "" && runTpl == "":
		return nil, &ResolveError{Extension: ext, Missing: "build or run"}
	case runTpl == "":
		return nil, &ResolveError{Extension: ext, Missing: "run"}
	}

	if lang == config.Other {
		r.Logger.Info("using fallback commands",
			slog.String("extension", ext),
			slog.String("build", buildTpl),
			slog.String("run", runTpl),
		)
	}

	if vars.Binary == "" {
		vars.Binary = BinaryPath(vars.Source)
	}

	spec := &Spec{Language: lang}

	if buildTpl != "" {
		build, err := expand(buildTpl, vars)
		if err != nil {
			return nil, fmt.Errorf("build template for %s: %w", lang, err)
		}

		if !strings.Contains(buildTpl, PlaceholderSource) {
			build = append(build, vars.Source)
		}

		spec.Build = build
	}

	run, err := expand(runTpl, vars)
	if err != nil {
		return nil, fmt.Errorf("run template for %s: %w", lang, err)
	}

	spec.Run = run

	r.Logger.Debug("resolved commands",
		slog.String("source", vars.Source),
		slog.String("language", lang),
		slog.Any("build", spec.Build),
		slog.Any("run", spec.Run),
	)

	return spec, nil
}

func expand(tpl string, vars Vars) ([]string, error) {
	fields, err := shlex.Split(tpl)
	if err != nil {
		return nil, fmt.Errorf("tokenize %q: %w", tpl, err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("template %q is empty", tpl)
	}

	replacer := strings.NewReplacer(
		PlaceholderSource, vars.Source,
		PlaceholderBinary, vars.Binary,
		PlaceholderInput, vars.Input,
		PlaceholderOutput, vars.Output,
	)

	for i, f := range fields {
		fields[i] = replacer.Replace(f)
	}

	return fields, nil
}
