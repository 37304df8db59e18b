// Package compare aligns two output files by test case and reports the
// lines that differ.
package compare

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Mismatch is one differing test case. Index is 1-based.
type Mismatch struct {
	Index     int    `json:"index"`
	Expected  string `json:"expected"`
	Candidate string `json:"candidate"`
}

// Result is the outcome of comparing N test cases.
type Result struct {
	TestCases  int        `json:"test_cases"`
	Mismatches []Mismatch `json:"mismatches"`
}

// Failed returns the number of mismatching test cases.
func (r *Result) Failed() int {
	return len(r.Mismatches)
}

// SuccessRate returns the percentage of matching test cases.
func (r *Result) SuccessRate() float64 {
	if r.TestCases == 0 {
		return 0
	}

	return (1 - float64(r.Failed())/float64(r.TestCases)) * 100
}

// ShortOutputError reports an output file with fewer lines than test cases.
type ShortOutputError struct {
	Path  string
	Lines int
	Want  int
}

func (e *ShortOutputError) Error() string {
	return fmt.Sprintf("output %s has %d lines, need %d: index %d out of range",
		e.Path, e.Lines, e.Want, e.Lines)
}

// Files compares the first count lines of the candidate and reference
// output files.
func Files(candidatePath, referencePath string, count int) (*Result, error) {
	candidate, err := ReadLines(candidatePath, count)
	if err != nil {
		return nil, err
	}

	reference, err := ReadLines(referencePath, count)
	if err != nil {
		return nil, err
	}

	return Lines(candidate, reference, count), nil
}

// Lines compares line i of candidate against line i of reference for i in
// [0, count). Both slices must hold at least count lines. Lines carry
// their "\n" terminator, so a last line without one differs from the same
// text with one. Mismatches are recorded without the terminator.
func Lines(candidate, reference []string, count int) *Result {
	result := &Result{TestCases: count}

	for i := 0; i < count; i++ {
		if candidate[i] != reference[i] {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Index:     i + 1,
				Expected:  strings.TrimSuffix(reference[i], "\n"),
				Candidate: strings.TrimSuffix(candidate[i], "\n"),
			})
		}
	}

	return result
}

// ReadLines reads the first want lines of the file at path. Each line
// keeps its terminator, with "\r\n" normalised to "\n"; all other bytes
// are kept.
func ReadLines(path string, want int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	defer f.Close()

	lines, err := readLines(f, want)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(lines) < want {
		return nil, &ShortOutputError{Path: path, Lines: len(lines), Want: want}
	}

	return lines, nil
}

func readLines(r io.Reader, limit int) ([]string, error) {
	br := bufio.NewReader(r)
	lines := make([]string, 0, limit)

	for len(lines) < limit {
		line, err := br.ReadString('\n')
		if line != "" {
			if crlf, ok := strings.CutSuffix(line, "\r\n"); ok {
				line = crlf + "\n"
			}

			lines = append(lines, line)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return lines, nil
}
