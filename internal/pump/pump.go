// Package pump implements the Output Pump (spec §4.4, component C5): it
// multiplexes a supervised child's stdout and stderr pipes onto caller
// sinks and enforces an inactivity timeout, killing the child's process
// group if it goes quiet for too long.
//
// It is grounded on original_source/utils.c's read_child (a poll(2) loop
// over two fds with a fixed timeout) and on tmc/macgo's process.IOHandler
// (PipeIOContext: context-cancellable goroutines copying between a pipe and
// a sink), generalized from "forward a macOS bundle's I/O" to "drain two
// pipes with a shared, read-resetting inactivity clock."
package pump

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tmc/ptestrunner/internal/collector"
	"github.com/tmc/ptestrunner/internal/xlog"
)

const bufSize = 4096

// Collect is invoked once, inline, when the inactivity timeout fires; its
// output is written to the stdout sink before the group-kill signal is
// sent. Production callers pass collector.Run; tests substitute a stub.
type Collect func(ctx context.Context, w io.Writer)

// Pump drains a supervised child's stdout/stderr pipes and watches for
// inactivity. The zero value is not usable; construct with New.
type Pump struct {
	stdoutR, stderrR *os.File
	stdoutSink       io.Writer
	stderrSink       io.Writer
	timeout          time.Duration
	pid              int
	collect          Collect

	timedOut atomic.Bool
}

// New builds a Pump for one Test's lifetime. pid is the child's process ID;
// a timeout inactivity kill sends SIGKILL to -pid (the whole process
// group). collect may be nil, in which case the timeout path skips the
// external collector invocation (used by tests that don't want to shell
// out).
func New(stdoutR, stderrR *os.File, stdoutSink, stderrSink io.Writer, timeout time.Duration, pid int, collect Collect) *Pump {
	return &Pump{
		stdoutR:    stdoutR,
		stderrR:    stderrR,
		stdoutSink: stdoutSink,
		stderrSink: stderrSink,
		timeout:    timeout,
		pid:        pid,
		collect:    collect,
	}
}

// TimedOut reports whether the inactivity kill fired. It is written once by
// Run (the atomic makes that single write visible without a separate lock)
// and is only meaningful after Run has returned, per spec §5's "no racing
// reads" guarantee.
func (p *Pump) TimedOut() bool {
	return p.timedOut.Load()
}

type chunk struct {
	sink io.Writer
	buf  []byte
	err  error
}

// Run drains both pipes until ctx is cancelled or both have reached EOF,
// whichever comes first. This resolves the open question in spec §9 (the
// original poll loop has no EOF short-circuit) in favor of exiting early on
// EOF: once the child is gone and both descriptors are drained there is
// nothing left to pump, and waiting out the full inactivity window a second
// time only delays the caller's join.
func (p *Pump) Run(ctx context.Context) {
	log := xlog.Get()
	ch := make(chan chunk, 4)

	open := 2
	go p.readLoop(p.stdoutR, p.stdoutSink, ch)
	go p.readLoop(p.stderrR, p.stderrSink, ch)

	killed := false
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	for open > 0 {
		select {
		case <-ctx.Done():
			return

		case c := <-ch:
			if c.err != nil {
				open--
				continue
			}
			if len(c.buf) > 0 {
				c.sink.Write(c.buf)
				flush(c.sink)
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(p.timeout)

		case <-timer.C:
			if !killed {
				log.Warn("inactivity timeout, killing process group", zap.Int("pid", p.pid), zap.Duration("timeout", p.timeout))
				if p.collect != nil {
					p.collect(ctx, p.stdoutSink)
				}
				p.timedOut.Store(true)
				_ = syscall.Kill(-p.pid, syscall.SIGKILL)
				killed = true
			}
			// Keep the window open rather than busy-spin a zero timer: the
			// child's death will produce EOF on both fds shortly, which is
			// the loop's real exit condition once killed is true.
			timer.Reset(p.timeout)
		}
	}
}

// readLoop performs blocking reads from r, forwarding each chunk on ch. It
// exits (sending a final chunk with a non-nil err) on read error or EOF.
func (p *Pump) readLoop(r *os.File, sink io.Writer, ch chan<- chunk) {
	buf := make([]byte, bufSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			ch <- chunk{sink: sink, buf: cp}
		}
		if err != nil {
			ch <- chunk{sink: sink, err: err}
			return
		}
	}
}

func flush(w io.Writer) {
	if f, ok := w.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	if f, ok := w.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
}

// RunCollector adapts collector.Run to the Collect signature, letting
// production callers pass pump.RunCollector instead of importing the
// collector package directly at every call site.
func RunCollector(ctx context.Context, w io.Writer) {
	collector.Run(ctx, w)
}
