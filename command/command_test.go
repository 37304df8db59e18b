package command

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/weiihann/incyte/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.py", config.Python},
		{"dir/Good.cpp", config.Cpp},
		{"a.cc", config.Cpp},
		{"a.CC", config.Other},
		{"main.PY", config.Other},
		{"Good.Cpp", config.Other},
		{"a.cxx", config.Cpp},
		{"main.rs", config.Other},
		{"Makefile", config.Other},
	}

	for _, tt := range tests {
		if got := Detect(tt.path); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestBinaryPath(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"Good.cpp", "./Good"},
		{"dir/main.cpp", "dir/main"},
		{"/abs/x.cc", "/abs/x"},
		{"prog", "./prog.bin"},
	}

	for _, tt := range tests {
		if got := BinaryPath(tt.src); got != tt.want {
			t.Errorf("BinaryPath(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestResolvePythonSkipsBuild(t *testing.T) {
	cfg := config.Defaults()
	r := NewResolver(&cfg, testLogger())

	spec, err := r.Resolve(Vars{
		Source: "main.py", Input: "in.txt", Output: "out.txt",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if spec.Build != nil {
		t.Errorf("build = %v, want nil", spec.Build)
	}

	want := []string{"python3", "main.py", "<", "in.txt", ">", "out.txt"}
	if !reflect.DeepEqual(spec.Run, want) {
		t.Errorf("run = %v, want %v", spec.Run, want)
	}
}

func TestResolveCppAppendsSource(t *testing.T) {
	cfg := config.Defaults()
	r := NewResolver(&cfg, testLogger())

	spec, err := r.Resolve(Vars{
		Source: "sol/Good.cpp", Input: "in.txt", Output: "good.txt",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	wantBuild := []string{"g++", "-std=c++17", "-O2", "-o", "sol/Good", "sol/Good.cpp"}
	if !reflect.DeepEqual(spec.Build, wantBuild) {
		t.Errorf("build = %v, want %v", spec.Build, wantBuild)
	}

	wantRun := []string{"sol/Good", "<", "in.txt", ">", "good.txt"}
	if !reflect.DeepEqual(spec.Run, wantRun) {
		t.Errorf("run = %v, want %v", spec.Run, wantRun)
	}
}

func TestResolveSourcePlaceholderNotAppended(t *testing.T) {
	cfg := config.Config{Languages: map[string]config.Language{
		config.Other: {Build: "rustc {src} -o {bin}", Run: "{bin}"},
	}}
	r := NewResolver(&cfg, testLogger())

	spec, err := r.Resolve(Vars{Source: "main.rs", Binary: "/tmp/main"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []string{"rustc", "main.rs", "-o", "/tmp/main"}
	if !reflect.DeepEqual(spec.Build, want) {
		t.Errorf("build = %v, want %v", spec.Build, want)
	}
}

func TestResolveQuotedTemplate(t *testing.T) {
	cfg := config.Config{Languages: map[string]config.Language{
		config.Other: {Run: `sh -c "cat {input}"`},
	}}
	r := NewResolver(&cfg, testLogger())

	spec, err := r.Resolve(Vars{Source: "x.sh", Input: "my input.txt"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []string{"sh", "-c", "cat my input.txt"}
	if !reflect.DeepEqual(spec.Run, want) {
		t.Errorf("run = %v, want %v", spec.Run, want)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		other   config.Language
		missing string
	}{
		{"nothing configured", config.Language{}, "build or run"},
		{"build only", config.Language{Build: "rustc"}, "run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{Languages: map[string]config.Language{
				config.Other: tt.other,
			}}
			r := NewResolver(&cfg, testLogger())

			_, err := r.Resolve(Vars{Source: "main.rs"})

			var resolveErr *ResolveError
			if !errors.As(err, &resolveErr) {
				t.Fatalf("err = %v, want *ResolveError", err)
			}
			if resolveErr.Missing != tt.missing {
				t.Errorf("missing = %q, want %q", resolveErr.Missing, tt.missing)
			}
			if resolveErr.Extension != ".rs" {
				t.Errorf("extension = %q, want .rs", resolveErr.Extension)
			}
			if !strings.Contains(err.Error(), "cannot find "+tt.missing+" command") {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
}
