package generator

import (
	"debug/buildinfo"
	"debug/elf"
	"fmt"
	"plugin"
	"sort"
	"strings"
)

// SymbolName is the function a generator plugin must export.
const SymbolName = "GenerateInput"

// PluginErrorKind classifies plugin load failures.
type PluginErrorKind int

const (
	// PluginNotFound means the plugin file could not be opened.
	PluginNotFound PluginErrorKind = iota
	// FunctionNotFound means the plugin has no usable GenerateInput.
	FunctionNotFound
)

// PluginError reports a custom generator that cannot be used.
type PluginError struct {
	Kind    PluginErrorKind
	Path    string
	Symbols []string
	Err     error
}

func (e *PluginError) Error() string {
	switch e.Kind {
	case FunctionNotFound:
		msg := fmt.Sprintf(
			"cannot find function %s in module %s: it must be declared as "+
				"func %s(testcases int, filename string) error",
			SymbolName, e.Path, SymbolName,
		)
		if len(e.Symbols) > 0 {
			msg += "; the module currently exports: " +
				strings.Join(e.Symbols, ", ")
		}

		return msg
	default:
		return fmt.Sprintf("cannot find module %s: %v", e.Path, e.Err)
	}
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

// LoadPlugin opens a Go plugin built with -buildmode=plugin and returns its
// GenerateInput function as a Generator.
func LoadPlugin(path string) (Generator, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, &PluginError{Kind: PluginNotFound, Path: path, Err: err}
	}

	sym, err := p.Lookup(SymbolName)
	if err != nil {
		return nil, &PluginError{
			Kind:    FunctionNotFound,
			Path:    path,
			Symbols: ExportedSymbols(path),
			Err:     err,
		}
	}

	switch fn := sym.(type) {
	case func(int, string) error:
		return Func(fn), nil
	case *func(int, string) error:
		return Func(*fn), nil
	default:
		return nil, &PluginError{
			Kind:    FunctionNotFound,
			Path:    path,
			Symbols: ExportedSymbols(path),
			Err:     fmt.Errorf("%s has type %T", SymbolName, sym),
		}
	}
}

// ExportedSymbols lists the package-level names a plugin's main package
// exports, read from its dynamic symbol table. It returns nil when the
// file is not a readable ELF object.
func ExportedSymbols(path string) []string {
	f, err := elf.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	syms, err := f.DynamicSymbols()
	if err != nil {
		return nil
	}

	pkgs := map[string]bool{"main": true}
	if info, err := buildinfo.ReadFile(path); err == nil && info.Path != "" {
		pkgs[info.Path] = true
	}

	return pluginNames(syms, pkgs)
}

// pluginNames picks the symbols of the plugin's main package. The linker
// names them after the plugin path: the package import path, or
// plugin/unnamed-<hash> when built from files.
func pluginNames(syms []elf.Symbol, pkgs map[string]bool) []string {
	seen := make(map[string]struct{})

	for _, s := range syms {
		pkg, name, ok := splitSymbol(s.Name)
		if !ok || (!pkgs[pkg] && !strings.HasPrefix(pkg, unnamedPluginPrefix)) {
			continue
		}

		if name == "" || name == "init" || strings.ContainsAny(name, ".*(){}[]") {
			continue
		}

		typ := elf.ST_TYPE(s.Info)
		if typ != elf.STT_FUNC && typ != elf.STT_OBJECT {
			continue
		}

		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

const unnamedPluginPrefix = "plugin/unnamed-"

// splitSymbol splits "path/to/pkg.Name" into package path and name.
func splitSymbol(sym string) (pkg, name string, ok bool) {
	slash := strings.LastIndexByte(sym, '/')

	dot := strings.IndexByte(sym[slash+1:], '.')
	if dot < 0 {
		return "", "", false
	}

	dot += slash + 1

	return sym[:dot], sym[dot+1:], true
}
