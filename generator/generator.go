// Package generator writes test-case input files for a stress run, either
// with the built-in random array generator or through a user plugin.
package generator

import (
	"bufio"
	"fmt"
	"io"
	mrand "math/rand"
	"os"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Generator populates path with count test cases. The file format is
// owned entirely by the implementation.
type Generator interface {
	GenerateInput(count int, path string) error
}

// Func adapts a plain function to the Generator interface.
type Func func(count int, path string) error

// GenerateInput calls f.
func (f Func) GenerateInput(count int, path string) error {
	return f(count, path)
}

// Default bounds of the built-in generator.
const (
	DefaultMinSize  = 2
	DefaultMaxSize  = 3000
	DefaultMinValue = 1
	DefaultMaxValue = 1000
)

// Config controls the built-in generator. Zero bounds take the defaults;
// a zero Seed seeds from the clock.
type Config struct {
	Seed     int64
	MinSize  int
	MaxSize  int
	MinValue int
	MaxValue int

	// Progress receives a progress bar while cases are generated. Nil
	// disables it.
	Progress io.Writer
}

// Summary contains statistics about a generated suite.
type Summary struct {
	TestCases int
	Values    int
	Bytes     int64
}

// Random produces suites of two equally sized integer arrays per case.
type Random struct {
	cfg Config
	rng *mrand.Rand
}

// NewRandom creates a Random generator from cfg.
func NewRandom(cfg Config) *Random {
	if cfg.MinSize <= 0 {
		cfg.MinSize = DefaultMinSize
	}
	if cfg.MaxSize < cfg.MinSize {
		cfg.MaxSize = max(DefaultMaxSize, cfg.MinSize)
	}
	if cfg.MinValue <= 0 {
		cfg.MinValue = DefaultMinValue
	}
	if cfg.MaxValue < cfg.MinValue {
		cfg.MaxValue = max(DefaultMaxValue, cfg.MinValue)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Random{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(seed)),
	}
}

// GenerateInput writes count test cases to path, truncating it.
func (g *Random) GenerateInput(count int, path string) error {
	_, err := g.GenerateFile(count, path)

	return err
}

// GenerateFile is GenerateInput returning the suite Summary.
func (g *Random) GenerateFile(count int, path string) (Summary, error) {
	f, err := os.Create(path)
	if err != nil {
		return Summary{}, fmt.Errorf("create %s: %w", path, err)
	}

	summary, err := g.Generate(f, count)
	if err != nil {
		f.Close()

		return summary, err
	}

	if err := f.Close(); err != nil {
		return summary, fmt.Errorf("close %s: %w", path, err)
	}

	return summary, nil
}

// Generate writes count test cases to w. The first line is count; each
// case is the size n, array A, array B and a blank separator line.
func (g *Random) Generate(w io.Writer, count int) (Summary, error) {
	if count < 1 {
		return Summary{}, fmt.Errorf("test case count must be positive, got %d", count)
	}

	cw := &countingWriter{w: bufio.NewWriter(w)}
	summary := Summary{}

	bar := g.progressBar(count)

	cw.writeInt(count)
	cw.writeByte('\n')

	for i := 0; i < count; i++ {
		n := g.between(g.cfg.MinSize, g.cfg.MaxSize)

		cw.writeInt(n)
		cw.writeByte('\n')
		g.writeArray(cw, n)
		g.writeArray(cw, n)
		cw.writeByte('\n')

		if cw.err != nil {
			return summary, fmt.Errorf("write test case %d: %w", i+1, cw.err)
		}

		summary.TestCases++
		summary.Values += 2 * n

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	if err := cw.w.Flush(); err != nil {
		return summary, fmt.Errorf("flush: %w", err)
	}

	summary.Bytes = cw.n

	return summary, nil
}

func (g *Random) progressBar(count int) *progressbar.ProgressBar {
	if g.cfg.Progress == nil {
		return nil
	}

	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(g.cfg.Progress),
		progressbar.OptionSetDescription("Generating test cases..."),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (g *Random) writeArray(cw *countingWriter, n int) {
	for j := 0; j < n; j++ {
		if j > 0 {
			cw.writeByte(' ')
		}
		cw.writeInt(g.between(g.cfg.MinValue, g.cfg.MaxValue))
	}

	cw.writeByte('\n')
}

func (g *Random) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	buf []byte
	err error
}

func (c *countingWriter) writeInt(v int) {
	c.buf = strconv.AppendInt(c.buf[:0], int64(v), 10)
	c.write(c.buf)
}

func (c *countingWriter) writeByte(b byte) {
	c.buf = append(c.buf[:0], b)
	c.write(c.buf)
}

func (c *countingWriter) write(p []byte) {
	if c.err != nil {
		return
	}

	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
}
