package ptestrunner

import "testing"

func TestRegistryAddDeduplicatesByIdentity(t *testing.T) {
	r := NewRegistry()

	added := r.add(Test{Name: "bash", RunPath: "/r/bash/ptest/run-ptest", identity: fileIdentity{dev: 1, ino: 100}})
	if !added {
		t.Fatal("expected first insert to succeed")
	}

	// Same identity reached through a different name (e.g. a second root
	// containing a symlinked copy) must be suppressed.
	added = r.add(Test{Name: "bash-alias", RunPath: "/other/bash/ptest/run-ptest", identity: fileIdentity{dev: 1, ino: 100}})
	if added {
		t.Fatal("expected duplicate identity to be skipped")
	}

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.add(Test{Name: "gcc", RunPath: "/r/gcc/ptest/run-ptest", identity: fileIdentity{dev: 1, ino: 1}})
	r.add(Test{Name: "glibc", RunPath: "/r/glibc/ptest/run-ptest", identity: fileIdentity{dev: 1, ino: 2}})

	got, ok := r.Lookup("glibc")
	if !ok {
		t.Fatal("expected glibc to be found")
	}
	if got.RunPath != "/r/glibc/ptest/run-ptest" {
		t.Errorf("RunPath = %q, want /r/glibc/ptest/run-ptest", got.RunPath)
	}

	if _, ok := r.Lookup("missing"); ok {
		t.Error("expected missing name to not be found")
	}
}

func TestRegistryLenOnNil(t *testing.T) {
	var r *Registry
	if r.Len() != 0 {
		t.Errorf("Len() on nil Registry = %d, want 0", r.Len())
	}
	if _, ok := r.Lookup("anything"); ok {
		t.Error("Lookup on nil Registry should report not found")
	}
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	r.add(Test{Name: "bash", RunPath: "/r/bash/ptest/run-ptest", identity: fileIdentity{dev: 1, ino: 1}})

	c := r.clone()
	r.add(Test{Name: "gcc", RunPath: "/r/gcc/ptest/run-ptest", identity: fileIdentity{dev: 1, ino: 2}})

	if c.Len() != 1 {
		t.Fatalf("clone Len() = %d, want 1 (mutating the source must not affect the clone)", c.Len())
	}
	if r.Len() != 2 {
		t.Fatalf("source Len() = %d, want 2", r.Len())
	}
}

func TestRegistryTestsPreservesOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"bash", "gcc", "glibc", "python"}
	for i, n := range names {
		r.add(Test{Name: n, RunPath: n, identity: fileIdentity{dev: 1, ino: uint64(i + 1)}})
	}

	got := r.Tests()
	if len(got) != len(names) {
		t.Fatalf("Tests() len = %d, want %d", len(got), len(names))
	}
	for i, n := range names {
		if got[i].Name != n {
			t.Errorf("Tests()[%d].Name = %q, want %q", i, got[i].Name, n)
		}
	}
}
