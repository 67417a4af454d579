// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/raylty/linkcheck-cli/internal/sheet"
)

func writeHeaderOnly(t *testing.T, path string, header []string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheetName := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheetName, "A1", &header))
	require.NoError(t, f.SaveAs(path))
}

// executeCommand runs a fresh root command with the given args and returns
// its combined output. A new instance per call keeps flag state isolated.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// executeCommandNoPreRun is for argument and flag validation tests that
// should not touch config loading or the logger.
func executeCommandNoPreRun(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	root.PersistentPreRunE = nil

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootShowsHelp(t *testing.T) {
	out, err := executeCommandNoPreRun(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "linkcheck")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "validate")
}

func TestRootVersion(t *testing.T) {
	out, err := executeCommandNoPreRun(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestRunRequiresInputArgument(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arg")
}

func TestRunRejectsMissingInputFile(t *testing.T) {
	_, err := executeCommand(t, "run", filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load input workbook")
}

func TestRunRejectsWorkbookWithoutRequiredColumns(t *testing.T) {
	// A workbook with an unrelated header must be refused before any
	// browser work starts.
	broken := filepath.Join(t.TempDir(), "broken.xlsx")
	writeHeaderOnly(t, broken, []string{"a", "b", "c"})

	_, err := executeCommand(t, "run", broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, sheet.ErrMissingColumn)
}

func TestRunRejectsUnwritableOutput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "in.xlsx")
	require.NoError(t, sheet.WriteSample(input))

	// Fails before any browser is launched.
	out := filepath.Join(t.TempDir(), "no", "such", "dir", "out.xlsx")
	_, err := executeCommand(t, "run", input, "-o", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not writable")
}

func TestProbeRequiresMaterialFlag(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "probe", "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "material")
}

func TestSampleWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.xlsx")
	out, err := executeCommand(t, "sample", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	ds, err := sheet.Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, ds.Cases)
}

func TestValidateWithoutManifest(t *testing.T) {
	t.Setenv("LINKCHECK_GEMINI_API_KEY", "test-key")
	dir := t.TempDir()
	_, err := executeCommand(t, "validate", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest")
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	cfgFile := createTempConfig(t, "runner:\n  max_attempts: 3\n")
	viper.Reset()

	root := NewRootCommand()
	root.SetArgs([]string{"--config", cfgFile, "sample", "-o", filepath.Join(t.TempDir(), "s.xlsx")})
	root.SetOut(new(bytes.Buffer))
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, 3, viper.GetInt("runner.max_attempts"))
}
