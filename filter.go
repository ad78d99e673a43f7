package ptestrunner

import "fmt"

// Filter builds a new Registry containing one entry per name in wanted, in
// the order given, copied independently from source (spec §4.2): discarding
// source afterward must not affect the returned Registry. wanted empty or
// source empty is an invalid-input error; any name absent from source is a
// not-found error and no Registry is produced.
func Filter(source *Registry, wanted []string) (*Registry, error) {
	if source.Len() == 0 || len(wanted) == 0 {
		return nil, newError("filter", KindInvalidInput, fmt.Errorf("empty registry or empty selection"))
	}

	out := NewRegistry()
	for _, name := range wanted {
		t, ok := source.Lookup(name)
		if !ok {
			return nil, newError("filter", KindNotFound, fmt.Errorf("%q not found", name))
		}
		// Independent copy: Test is a value type, so appending it detaches
		// it from source's backing array.
		out.tests = append(out.tests, t)
		out.byName[t.Name] = len(out.tests) - 1
	}

	return out, nil
}

// Exclude returns a new Registry with every Test named in excludes removed,
// preserving the order of the rest. It is the supplemented behavior for
// RunOptions.Excludes (spec.md's data model names the field; this repo is
// the first to wire it to an operation — see SPEC_FULL.md).
func Exclude(source *Registry, excludes []string) *Registry {
	if len(excludes) == 0 {
		return source.clone()
	}

	drop := make(map[string]struct{}, len(excludes))
	for _, name := range excludes {
		drop[name] = struct{}{}
	}

	out := NewRegistry()
	for _, t := range source.Tests() {
		if _, excluded := drop[t.Name]; excluded {
			continue
		}
		out.tests = append(out.tests, t)
		out.byName[t.Name] = len(out.tests) - 1
	}
	return out
}
