package ptestrunner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/tmc/ptestrunner/internal/launcher"
	"github.com/tmc/ptestrunner/internal/pump"
	"github.com/tmc/ptestrunner/internal/report"
	"github.com/tmc/ptestrunner/internal/xlog"
)

const isoLayout = "2006-01-02T15:04"

// Run executes every Test in reg under supervision (spec §4.5, component
// C6): launch, pump, wait, classify, record, repeating sequentially in
// Registry order and bracketing the whole session with START/STOP markers
// on stdout. It returns the SuiteResult alongside the aggregate exit code:
// 0 if every case exited 0, otherwise the count of cases that didn't.
//
// A setup failure that precedes the first case (stdout/stderr pipe
// creation failing) aborts the whole run and returns -1, per spec §4.5's
// "On setup failure ... return −1".
func Run(ctx context.Context, reg *Registry, opts RunOptions, progName string, stdout, stderr io.Writer) (SuiteResult, int) {
	log := xlog.Get()
	result := SuiteResult{Program: progName}

	var xh *report.Writer
	if opts.XMLPath != "" {
		w, err := report.Create(opts.XMLPath, reg.Len())
		if err != nil {
			fmt.Fprintf(stderr, "run_ptests fails: %v\n", err)
			return result, -1
		}
		xh = w
		defer xh.Finish()
	}

	detachControllingTTY(stdout)

	forwarder := newInterruptForwarder()
	stopForwarding := forwarder.start()
	defer stopForwarding()

	fmt.Fprintf(stdout, "START: %s\n", progName)

	rc := 0
	for i, t := range reg.Tests() {
		if forwarder.stopRequested() {
			log.Info("interrupted, stopping before remaining cases", zap.Int("remaining", reg.Len()-i))
			break
		}

		cr, err := runOne(ctx, t, opts.Timeout, stdout, forwarder)
		if err != nil {
			fmt.Fprintf(stderr, "run_ptests fails: %v\n", err)
			return result, -1
		}

		if cr.ExitCode != 0 {
			rc++
		}
		result.Cases = append(result.Cases, cr)

		if xh != nil {
			xh.AddCase(t.Name, cr.ExitCode, cr.TimedOut, int(cr.Duration.Seconds()))
		}
	}

	fmt.Fprintf(stdout, "STOP: %s\n", progName)
	return result, rc
}

// runOne implements the per-Test procedure of spec §4.5: idle → launching →
// running → (normal-exit | timed-out) → recording → idle.
func runOne(ctx context.Context, t Test, timeout time.Duration, stdout io.Writer, forwarder *interruptForwarder) (CaseResult, error) {
	log := xlog.Get()

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return CaseResult{}, fmt.Errorf("create stdout pipe: %w", err)
	}
	defer stdoutR.Close()

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutW.Close()
		return CaseResult{}, fmt.Errorf("create stderr pipe: %w", err)
	}
	defer stderrR.Close()

	pumpCtx, cancelPump := context.WithCancel(ctx)

	fmt.Fprintf(stdout, "%s\n", time.Now().Local().Format(isoLayout))
	fmt.Fprintf(stdout, "BEGIN: %s\n", t.Name)

	h, err := launcher.Launch(launcher.Test{Name: t.Name, RunPath: t.RunPath}, stdoutW, stderrW)
	stdoutW.Close()
	stderrW.Close()
	if err != nil {
		cancelPump()
		log.Error("child spawn failed", zap.String("test", t.Name), zap.Error(err))
		fmt.Fprintf(stdout, "\nERROR: Exit status is %d\n", 1)
		fmt.Fprintf(stdout, "DURATION: %d\n", 0)
		fmt.Fprintf(stdout, "END: %s\n", t.Name)
		fmt.Fprintf(stdout, "%s\n", time.Now().Local().Format(isoLayout))
		return CaseResult{Name: t.Name, ExitCode: 1}, nil
	}

	p := pump.New(stdoutR, stderrR, stdout, io.Discard, timeout, h.Pid, pump.RunCollector)
	forwarder.setTarget(h.Pid)

	pumpDone := make(chan struct{})
	go func() {
		p.Run(pumpCtx)
		close(pumpDone)
	}()

	start := time.Now()
	exitCode := h.Wait()
	duration := time.Since(start)

	forwarder.setTarget(0)
	cancelPump()
	<-pumpDone

	if exitCode != 0 {
		fmt.Fprintf(stdout, "\nERROR: Exit status is %d\n", exitCode)
	}
	fmt.Fprintf(stdout, "DURATION: %d\n", int(duration.Seconds()))
	if p.TimedOut() {
		fmt.Fprintf(stdout, "TIMEOUT: %s\n", t.Name)
	}
	fmt.Fprintf(stdout, "END: %s\n", t.Name)
	fmt.Fprintf(stdout, "%s\n", time.Now().Local().Format(isoLayout))

	return CaseResult{
		Name:     t.Name,
		ExitCode: exitCode,
		TimedOut: p.TimedOut(),
		Duration: duration,
	}, nil
}

// detachControllingTTY best-effort detaches fd 0 from its controlling
// terminal (spec §4.5 step 2, original_source/utils.c: TIOCNOTTY). It is
// a no-op, not a failure, when fd 0 isn't a tty.
func detachControllingTTY(stdout io.Writer) {
	fd := int(os.Stdin.Fd())
	if !isatty(fd) {
		return
	}
	if err := unix.IoctlSetInt(fd, unix.TIOCNOTTY, 0); err != nil {
		fmt.Fprintf(stdout, "ERROR: Unable to detach from controlling tty, %v\n", err)
	}
}

func isatty(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	return err == nil
}
