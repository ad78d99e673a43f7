package ptestrunner

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"
)

// DiscoverRoot scans a single root directory and returns the Registry of
// Tests it contains. It implements the Discoverer contract (spec §4.1):
// enumerate root's immediate children in C-locale lexical order, and for
// each child N, probe <root>/N/ptest/run-ptest; a stat miss or a non-regular
// file is skipped silently, a duplicate (dev, inode) is skipped silently,
// everything else is appended in order.
func DiscoverRoot(root string) (*Registry, error) {
	realRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, newError("discover", KindIOFailure, err)
	}
	realRoot, err = filepath.EvalSymlinks(realRoot)
	if err != nil {
		return nil, newError("discover", KindIOFailure, err)
	}

	st, err := os.Stat(realRoot)
	if err != nil {
		return nil, newError("discover", KindInvalidInput, err)
	}
	if !st.IsDir() {
		return nil, newError("discover", KindInvalidInput, fmt.Errorf("%s is not a directory", realRoot))
	}

	entries, err := os.ReadDir(realRoot)
	if err != nil {
		return nil, newError("discover", KindIOFailure, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	// C-locale lexical order is plain byte-wise comparison, which is what
	// sort.Strings gives us for the ASCII directory names ptest packages use.
	sort.Strings(names)

	reg := NewRegistry()
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}

		runPath := filepath.Join(realRoot, name, "ptest", "run-ptest")
		fi, err := os.Stat(runPath)
		if err != nil {
			if os.IsNotExist(err) || isNotDir(err) {
				continue
			}
			return nil, newError("discover", KindIOFailure, err)
		}
		if !fi.Mode().IsRegular() {
			continue
		}

		id, ok := identityOf(fi)
		if !ok {
			// Platform without dev/inode support: fall back to path-based
			// identity so de-duplication still degrades gracefully.
			id = fileIdentity{dev: 0, ino: hashPath(runPath)}
		}

		reg.add(Test{Name: name, RunPath: runPath, identity: id})
	}

	return reg, nil
}

// DiscoverRoots scans multiple root directories in order, merging their
// Registries (de-duplication by identity applies across roots too, so a
// test reachable through two roots is recorded once). A root that exists
// and is a directory but contributes zero Tests produces the warning line
// from the original ptest-runner2 implementation on warnings, rather than
// failing the whole scan. original_source/utils.h: PRINT_PTESTS_NOT_FOUND_DIR.
func DiscoverRoots(roots []string, warnings io.Writer) (*Registry, error) {
	merged := NewRegistry()

	for _, root := range roots {
		before := merged.Len()
		sub, err := DiscoverRoot(root)
		if err != nil {
			return nil, err
		}
		for _, t := range sub.Tests() {
			merged.add(t)
		}
		if merged.Len() == before && warnings != nil {
			fmt.Fprintf(warnings, "Warning: ptests not found in, %s.\n", root)
		}
	}

	return merged, nil
}

// identityOf extracts the (dev, inode) pair from a FileInfo on platforms
// that expose it through syscall.Stat_t (all POSIX targets this package
// supports).
func identityOf(fi fs.FileInfo) (fileIdentity, bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fileIdentity{}, false
	}
	return fileIdentity{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}

// hashPath is a last-resort identity fallback for FileInfo values without a
// syscall.Stat_t: a 64-bit FNV-1a hash of the path, so only the same path
// de-duplicates, and two distinct paths merge only on a hash collision.
func hashPath(path string) uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for i := 0; i < len(path); i++ {
		h ^= uint64(path[i])
		h *= 1099511628211
	}
	return h
}

// isNotDir reports whether err indicates a path component was not a
// directory, which stat reports as ENOTDIR rather than ENOENT when a
// sibling file shadows the expected "ptest" directory.
func isNotDir(err error) bool {
	var pe *fs.PathError
	if as, ok := err.(*fs.PathError); ok {
		pe = as
	}
	if pe == nil {
		return false
	}
	errno, ok := pe.Err.(syscall.Errno)
	return ok && errno == syscall.ENOTDIR
}
