// Package report formats the outcome of a stress run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/weiihann/incyte/compare"
)

// Report is the final summary of one invocation.
type Report struct {
	RunID         string             `json:"run_id"`
	TestCases     int                `json:"test_cases"`
	Failed        int                `json:"failed"`
	SuccessRate   float64            `json:"success_rate"`
	CandidateTime time.Duration      `json:"candidate_time_ns"`
	ReferenceTime time.Duration      `json:"reference_time_ns"`
	Mismatches    []compare.Mismatch `json:"mismatches"`
}

// New builds a Report from a comparison and the two run durations.
func New(runID string, cmp *compare.Result, candidate, reference time.Duration) *Report {
	return &Report{
		RunID:         runID,
		TestCases:     cmp.TestCases,
		Failed:        cmp.Failed(),
		SuccessRate:   cmp.SuccessRate(),
		CandidateTime: candidate,
		ReferenceTime: reference,
		Mismatches:    cmp.Mismatches,
	}
}

var (
	bold  = color.New(color.Bold)
	red   = color.New(color.FgRed)
	green = color.New(color.FgGreen)
	fail  = color.New(color.Bold, color.FgRed)
)

// Generate writes the mismatches followed by the summary lines.
func Generate(w io.Writer, r *Report) error {
	if r == nil {
		return fmt.Errorf("no report to write")
	}

	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "TestCase : %s\n", bold.Sprint(m.Index))
		fmt.Fprintf(w, "Good : %s\n", green.Sprint(m.Expected))
		fmt.Fprintf(w, "Bad  : %s\n", red.Sprint(m.Candidate))
	}

	fmt.Fprintf(w, "Test Cases: %s\n", bold.Sprint(r.TestCases))
	fmt.Fprintf(w, "Failed Tests: %s\n", fail.Sprint(r.Failed))
	fmt.Fprintf(w, "Success Rate: %s\n", bold.Sprintf("%.2f%%", r.SuccessRate))
	fmt.Fprintf(w, "Time Taken: %s\n", bold.Sprint(FormatSeconds(r.CandidateTime)))

	_, err := fmt.Fprintf(w, "Good Time Taken: %s\n",
		bold.Sprint(FormatSeconds(r.ReferenceTime)))

	return err
}

// GenerateJSON writes r as JSON to w.
func GenerateJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}

// FormatSeconds renders d in seconds with two decimals.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// Errorf writes a one-line error message in the console style.
func Errorf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", fail.Sprint("Error:"), fmt.Sprintf(format, args...))
}
