// Package launcher implements the supervised child launch sequence (spec
// §4.3, the Child Launcher / C4 component): pipes, a process group the
// supervisor can signal as a unit, a PTY the child inherits as its
// controlling terminal, and exec of the test driver.
//
// It is grounded on tmc/macgo's process.Launcher (exec.Cmd +
// syscall.SysProcAttr{Setpgid: true}), generalized from "launch a macOS app
// bundle" to "launch a ptest driver with a controlling PTY", using
// github.com/creack/pty for the PTY half that macgo's process/io.go only
// ever stubbed out with a named FIFO.
package launcher

import (
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/tmc/ptestrunner/internal/xlog"
)

// Handle is the running child returned by Launch.
type Handle struct {
	Process *os.Process
	Pid     int

	cmd  *exec.Cmd
	ptmx *os.File
	tty  *os.File
}

// Wait blocks until the child exits and returns its exit status the way
// spec §4.3's wait_child does: the raw exit code when the process exited
// normally, or a signal-derived status otherwise.
func (h *Handle) Wait() int {
	err := h.cmd.Wait()
	closeQuietly(h.ptmx)
	closeQuietly(h.tty)
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Exited() {
				return status.ExitStatus()
			}
			if status.Signaled() {
				// A child killed by a signal reports 128 plus the signal
				// number (the shell's convention), not the raw wait(2) status.
				return 128 + int(status.Signal())
			}
		}
	}
	return -1
}

// Launch spawns run as a supervised child (spec §4.3). stdoutW and stderrW
// are the pipe write ends the caller created for the Output Pump; both the
// child's stdout and stderr are redirected to stdoutW to preserve
// interleaving order (spec §5 "Output ordering" — deliberate, do not
// separate the streams). stderrW is accepted for contract parity with the
// pipe pair the Supervisor owns but is never handed to the child: Go's
// exec.Cmd only inherits fds explicitly wired through Stdin/Stdout/Stderr/
// ExtraFiles, so the original C implementation's "inherit then close in the
// child" dance for the unused descriptor collapses to simply never wiring
// it up — same observable effect (original_source/utils.c: run_child).
func Launch(run Test, stdoutW, stderrW *os.File) (*Handle, error) {
	_ = stderrW

	log := xlog.Get()

	ptmx, tty, err := pty.Open()
	if err != nil {
		log.Warn("pty allocation failed, falling back to plain pipes", zap.Error(err))
	} else {
		chownSlave(tty)
	}

	cmd := exec.Command(run.RunPath)
	cmd.Dir = filepath.Dir(run.RunPath)
	cmd.Stdout = stdoutW
	cmd.Stderr = stdoutW

	attr := &syscall.SysProcAttr{}
	if tty != nil {
		cmd.Stdin = tty
		// Setsid makes the child a new session and process-group leader in
		// one step (its pgid becomes its own pid), which is both "join a
		// process group the supervisor can signal as a unit" and the
		// precondition for acquiring a controlling terminal. Grandchildren
		// inherit this group by default, so a single group-kill reaches
		// them too.
		attr.Setsid = true
		attr.Setctty = true
		attr.Ctty = 0 // index into cmd's fd 0 (Stdin), i.e. the tty
	} else {
		cmd.Stdin = nil
		attr.Setpgid = true
	}
	cmd.SysProcAttr = attr

	if err := cmd.Start(); err != nil {
		closeQuietly(ptmx)
		closeQuietly(tty)
		return nil, err
	}

	log.Debug("child spawned", zap.String("test", run.Name), zap.Int("pid", cmd.Process.Pid))

	return &Handle{
		Process: cmd.Process,
		Pid:     cmd.Process.Pid,
		cmd:     cmd,
		ptmx:    ptmx,
		tty:     tty,
	}, nil
}

// Test is the subset of ptestrunner.Test the launcher needs; declared here
// (rather than imported) to keep this package free of a dependency on the
// root package, matching the teacher's process subpackage which took plain
// strings rather than macgo's own config types.
type Test struct {
	Name    string
	RunPath string
}

// chownSlave best-effort chowns and chmods the PTY slave to the current
// user (and the "tty" group, if present), matching
// original_source/utils.c's setup_slave_pty. Failures are logged, not
// fatal: the philosophy throughout this launch sequence is best-effort
// isolation, not aborting the run over a cosmetic permission.
func chownSlave(tty *os.File) {
	log := xlog.Get()

	uid := os.Getuid()
	gid := -1
	if g, err := user.LookupGroup("tty"); err == nil {
		if n, err := strconv.Atoi(g.Gid); err == nil {
			gid = n
		}
	}

	if err := os.Chown(tty.Name(), uid, gid); err != nil {
		log.Debug("chown pty slave failed", zap.Error(err))
	}
	if err := os.Chmod(tty.Name(), 0o600); err != nil {
		log.Debug("chmod pty slave failed", zap.Error(err))
	}
}

func closeQuietly(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}
