// Package ptestrunner discovers and supervises package test ("ptest")
// drivers: self-contained executables installed under one or more root
// directories at the conventional path <root>/<name>/ptest/run-ptest.
//
// A typical caller discovers a Registry, optionally narrows it with Filter,
// then hands it to Run along with a RunOptions and a pair of sinks. Run
// launches each test driver as an isolated child process, merges its
// stdout/stderr onto the stdout sink, kills it if it goes quiet for longer
// than the configured timeout, and returns an aggregate exit code.
//
// # Cross-platform compatibility
//
// Process-group isolation and PTY allocation are POSIX concepts, and this
// package builds only on POSIX hosts that provide them (it calls
// syscall.Kill and golang.org/x/sys/unix terminal ioctls directly). When PTY
// allocation fails at run time, internal/launcher starts the child in a new
// process group without a controlling terminal; there is no fallback for
// hosts without process groups.
package ptestrunner
