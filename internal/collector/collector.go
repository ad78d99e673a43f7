// Package collector runs the external system-state collector program
// invoked by the Output Pump when a test's inactivity timeout fires (spec
// §6, "External program invoked on timeout"). It is the one out-of-process
// collaborator the supervision core calls into, grounded on
// original_source/utils.c's collect_system_state (popen + line-by-line
// fgets) and on tmc/macgo's process.Launcher exec.Command usage for the
// Go-idiomatic replacement of popen.
package collector

import (
	"context"
	"io"
	"os/exec"
)

// ProgramName is the external collector binary, launched via the shell's
// default command search (spec §6).
const ProgramName = "ptest-runner-collect-system-data"

// Run invokes the collector and copies its stdout verbatim into w. If the
// collector cannot be started or exits with a non-zero status, the line
// "Command not found or exited with error status" is appended to w; nothing
// is returned to the caller, so the outcome never affects the Test's
// classification.
func Run(ctx context.Context, w io.Writer) {
	cmd := exec.CommandContext(ctx, ProgramName)
	cmd.Stdout = w

	if err := cmd.Run(); err != nil {
		io.WriteString(w, "Command not found or exited with error status\n")
	}
}
