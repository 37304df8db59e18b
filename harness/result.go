// Package harness builds and runs the programs under test, one at a time.
package harness

import "time"

// Result records one executed program.
type Result struct {
	Name    string        `json:"name"`
	Source  string        `json:"source"`
	Output  string        `json:"output"`
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
	Elapsed time.Duration `json:"elapsed"`
}
