package ptestrunner

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"

	"github.com/tmc/ptestrunner/internal/xlog"
)

// interruptForwarder forwards SIGINT/SIGTERM received by the runner process
// to the process group of whichever child is currently running, then
// requests that Run wind down after the current case instead of leaving an
// orphaned child behind. It is adapted from tmc/macgo's
// signal.Handler.forwardSignalsToProcess, narrowed from "forward everything
// the OS can deliver" to the two signals an interactive `ptest-runner`
// invocation actually needs to propagate, and retargeted at a process group
// rather than a single macOS app-bundle process.
type interruptForwarder struct {
	target  atomic.Int64 // pid of the in-flight child, 0 if none
	stopped atomic.Bool
	sigCh   chan os.Signal
}

func newInterruptForwarder() *interruptForwarder {
	return &interruptForwarder{sigCh: make(chan os.Signal, 4)}
}

// setTarget records the pid whose process group should receive a forwarded
// signal. Pass 0 once the child has been reaped.
func (f *interruptForwarder) setTarget(pid int) {
	f.target.Store(int64(pid))
}

// stopRequested reports whether an interrupt has been observed; the
// Supervisor loop checks this between cases to stop launching new ones.
func (f *interruptForwarder) stopRequested() bool {
	return f.stopped.Load()
}

// start begins forwarding and returns a function that stops it.
func (f *interruptForwarder) start() func() {
	log := xlog.Get()
	signal.Notify(f.sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig, ok := <-f.sigCh:
				if !ok {
					return
				}
				f.stopped.Store(true)
				if pid := f.target.Load(); pid != 0 {
					log.Info("forwarding interrupt to running child's process group",
						zap.Stringer("signal", sig), zap.Int64("pid", pid))
					_ = syscall.Kill(-int(pid), syscall.SIGTERM)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(f.sigCh)
		close(done)
	}
}
