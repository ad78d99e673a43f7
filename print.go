package ptestrunner

import (
	"fmt"
	"io"
)

// Print writes the Registry's listing to w following the listing-mode
// protocol (spec §6): a non-empty Registry prints "Available ptests:\n"
// followed by one "<name>\t<run_path>\n" line per Test; an empty Registry
// prints the literal "No ptests found.\n". It returns 0 for the non-empty
// case and 1 for the empty case, matching the original implementation's
// return convention (original_source/utils.c: print_ptests).
func Print(reg *Registry, w io.Writer) int {
	if reg.Len() == 0 {
		fmt.Fprint(w, "No ptests found.\n")
		return 1
	}

	fmt.Fprint(w, "Available ptests:\n")
	for _, t := range reg.Tests() {
		fmt.Fprintf(w, "%s\t%s\n", t.Name, t.RunPath)
	}
	return 0
}
