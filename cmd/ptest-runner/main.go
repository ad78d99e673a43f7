// Command ptest-runner discovers and supervises ptest packages. Argument
// parsing, help text, and exit-code mapping live here rather than in the
// ptestrunner package itself — this is the outer collaborator, shaped the
// way ja7ad/consumption's cmd/consumption/main.go binds cobra flags to a
// plain options struct and delegates to a run(ctx, o, args) function.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmc/ptestrunner"
)

type opts struct {
	roots    []string
	excludes []string
	listOnly bool
	timeout  time.Duration
	xmlPath  string
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "ptest-runner [ptest names...]",
		Short: "Discover and supervise package test (ptest) drivers",
		Long: `ptest-runner scans one or more root directories for packages that ship a
ptest/run-ptest driver, runs each one as a supervised child process, and
reports pass/fail/timeout results as a transcript and, optionally, an XML
report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := run(cmd.Context(), o, args, os.Stdout, os.Stderr)
			if err != nil {
				return err
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	root.Flags().StringSliceVarP(&o.roots, "directory", "d", []string{"/usr/lib"}, "root directory to scan for ptests (repeatable)")
	root.Flags().StringSliceVarP(&o.excludes, "exclude", "x", nil, "ptest name to exclude (repeatable)")
	root.Flags().BoolVarP(&o.listOnly, "list", "l", false, "list available ptests and exit")
	root.Flags().DurationVarP(&o.timeout, "timeout", "t", 30*time.Second, "inactivity timeout per ptest")
	root.Flags().StringVar(&o.xmlPath, "xml", "", "write an XML report to this path")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts, selected []string, stdout, stderr *os.File) (int, error) {
	reg, err := ptestrunner.DiscoverRoots(o.roots, stderr)
	if err != nil {
		return -1, err
	}
	reg = ptestrunner.Exclude(reg, o.excludes)

	if o.listOnly {
		return ptestrunner.Print(reg, stdout), nil
	}

	if len(selected) > 0 {
		filtered, err := ptestrunner.Filter(reg, selected)
		if err != nil {
			return -1, err
		}
		reg = filtered
	}

	runOpts := ptestrunner.RunOptions{
		Roots:    o.roots,
		Excludes: o.excludes,
		Selected: selected,
		Timeout:  o.timeout,
		XMLPath:  o.xmlPath,
	}

	_, code := ptestrunner.Run(ctx, reg, runOpts, "ptest-runner", stdout, stderr)
	return code, nil
}
