package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// S7 — XML golden: a two-case suite where the first case is a clean pass
// and the second both failed and timed out must byte-equal the reference
// document, literal single quotes included.
func TestWriterGoldenDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")

	w, err := Create(path, 2)
	require.NoError(t, err)

	w.AddCase("test1", 0, false, 5)
	w.AddCase("test2", 1, true, 10)

	require.NoError(t, w.Finish())

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "" +
		"<?xml version='1.0' encoding='UTF-8'?>\n" +
		"<testsuite name='ptest' tests='2'>\n" +
		"\t<testcase classname='test1' name='run-ptest'>\n" +
		"\t\t<duration>5</duration>\n" +
		"\t</testcase>\n" +
		"\t<testcase classname='test2' name='run-ptest'>\n" +
		"\t\t<duration>10</duration>\n" +
		"\t\t<failure type='exit_code' message='run-ptest exited with code: 1'></failure>\n" +
		"\t\t<failure type='timeout'/>\n" +
		"\t</testcase>\n" +
		"</testsuite>\n"

	require.Equal(t, want, string(got))
}

// S8 — XML bad path: opening a directory for writing must fail, not panic.
func TestCreateRejectsDirectoryPath(t *testing.T) {
	dir := t.TempDir()

	w, err := Create(dir, 0)
	require.Error(t, err)
	require.Nil(t, w)
}

func TestAddCaseOmitsFailureElementsOnPlainPass(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")
	w, err := Create(path, 1)
	require.NoError(t, err)

	w.AddCase("bash", 0, false, 1)
	require.NoError(t, w.Finish())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(got), "<failure")
}
