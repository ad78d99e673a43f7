package launcher

import (
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "run-ptest")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestLaunchRunsInDriverDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process groups and PTYs are POSIX-specific")
	}

	dir := t.TempDir()
	outFile := filepath.Join(dir, "pwd.out")
	path := writeScript(t, dir, "pwd > "+outFile+"\n")

	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	defer stdoutR.Close()
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)
	defer stderrR.Close()

	h, err := Launch(Test{Name: "pwdtest", RunPath: path}, stdoutW, stderrW)
	require.NoError(t, err)
	stdoutW.Close()
	stderrW.Close()

	code := h.Wait()
	require.Equal(t, 0, code)

	got, err := os.ReadFile(outFile)
	require.NoError(t, err)

	resolvedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	require.Contains(t, string(got), resolvedDir)
}

func TestLaunchChildBecomesProcessGroupLeader(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process groups are POSIX-specific")
	}

	dir := t.TempDir()
	path := writeScript(t, dir, "sleep 5 &\nwait\n")

	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	defer stdoutR.Close()
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)
	defer stderrR.Close()

	h, err := Launch(Test{Name: "grouptest", RunPath: path}, stdoutW, stderrW)
	require.NoError(t, err)
	stdoutW.Close()
	stderrW.Close()

	pgid, err := syscall.Getpgid(h.Pid)
	require.NoError(t, err)
	require.Equal(t, h.Pid, pgid, "child should be the leader of its own process group")

	require.NoError(t, syscall.Kill(-h.Pid, syscall.SIGKILL))
	h.Wait()
}

func TestWaitDecodesNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exit status decoding assumes POSIX wait semantics")
	}

	dir := t.TempDir()
	path := writeScript(t, dir, "exit 10\n")

	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	defer stdoutR.Close()
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)
	defer stderrR.Close()

	h, err := Launch(Test{Name: "failtest", RunPath: path}, stdoutW, stderrW)
	require.NoError(t, err)
	stdoutW.Close()
	stderrW.Close()

	require.Equal(t, 10, h.Wait())
}

func TestLaunchReturnsErrorWhenDriverMissing(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope")

	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	defer stdoutR.Close()
	defer stdoutW.Close()
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)
	defer stderrR.Close()
	defer stderrW.Close()

	_, err = Launch(Test{Name: "missing", RunPath: missing}, stdoutW, stderrW)
	require.Error(t, err)
}
