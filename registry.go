package ptestrunner

// fileIdentity is the (device, inode) pair used to de-duplicate Tests
// discovered through different paths (e.g. a symlinked root) that resolve
// to the same run-ptest file.
type fileIdentity struct {
	dev uint64
	ino uint64
}

// Test identifies one executable test driver.
type Test struct {
	// Name is the human-readable identifier: the directory name under the
	// root that contained it.
	Name string
	// RunPath is the absolute path to the executable driver, conventionally
	// <root>/<Name>/ptest/run-ptest.
	RunPath string

	identity fileIdentity
}

// Registry is an ordered, de-duplicated sequence of Tests. The zero value is
// an empty, usable Registry.
type Registry struct {
	tests []Test
	byName map[string]int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Len returns the number of Tests in the Registry.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tests)
}

// Tests returns the Registry's Tests in discovery order. The returned slice
// must not be mutated by the caller.
func (r *Registry) Tests() []Test {
	if r == nil {
		return nil
	}
	return r.tests
}

// Lookup returns the Test named name and true, or the zero Test and false if
// no such Test exists.
func (r *Registry) Lookup(name string) (Test, bool) {
	if r == nil {
		return Test{}, false
	}
	i, ok := r.byName[name]
	if !ok {
		return Test{}, false
	}
	return r.tests[i], true
}

// hasIdentity reports whether a Test with the given fileIdentity is already
// present, implementing the "first occurrence wins" de-duplication rule.
func (r *Registry) hasIdentity(id fileIdentity) bool {
	for _, t := range r.tests {
		if t.identity == id {
			return true
		}
	}
	return false
}

// add appends a Test, skipping it silently if its identity already exists.
// Returns true if the Test was added.
func (r *Registry) add(t Test) bool {
	if r.hasIdentity(t.identity) {
		return false
	}
	r.tests = append(r.tests, t)
	r.byName[t.Name] = len(r.tests) - 1
	return true
}

// clone returns a deep-enough copy of the Registry: the returned Registry's
// Tests are independent of the receiver's, so discarding one does not affect
// the other (the Filter invariant in spec.md §4.2).
func (r *Registry) clone() *Registry {
	out := NewRegistry()
	if r == nil {
		return out
	}
	out.tests = append(out.tests, r.tests...)
	for k, v := range r.byName {
		out.byName[k] = v
	}
	return out
}
