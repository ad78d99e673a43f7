package ptestrunner

import "time"

// RunOptions configures a Run invocation.
type RunOptions struct {
	// Roots lists the directories to scan for ptest packages.
	Roots []string
	// Excludes names Tests to drop after discovery, independent of and
	// composable with an explicit Selected allow-list.
	Excludes []string
	// Selected, if non-empty, is passed by the caller to Filter to narrow
	// the Registry before Run executes it. Run itself does not read it.
	Selected []string
	// ListOnly, when true, causes the caller to print the Registry (via
	// Print) instead of executing it. Run itself does not interpret this
	// field; it exists on RunOptions so a single config struct round-trips
	// through the CLI layer.
	ListOnly bool
	// Timeout is the inactivity timeout: the maximum duration a supervised
	// child may produce no output before it is declared stuck and killed.
	Timeout time.Duration
	// XMLPath, if non-empty, causes Run to write a Report Writer document
	// to this path.
	XMLPath string
}

// CaseResult is the observable outcome of running one Test.
type CaseResult struct {
	Name     string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Passed reports whether the case is a clean pass: zero exit status and no
// inactivity kill.
func (c CaseResult) Passed() bool {
	return c.ExitCode == 0 && !c.TimedOut
}

// SuiteResult is the ordered outcome of one Run invocation.
type SuiteResult struct {
	Program string
	Cases   []CaseResult
}
