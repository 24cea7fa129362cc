package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtures = "../../pkg/host/testdata"

// execute runs the CLI in-process and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)

	err := run(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bpmx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--config", writeConfig(t, "{}"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "bpmx version "), out)
}

func TestNodeCommands(t *testing.T) {
	cfgPath := writeConfig(t, "{}")
	root := t.TempDir()
	base := []string{"--config", cfgPath, "--root", root}
	node := func(args ...string) (string, error) {
		return execute(t, append(append([]string{"node"}, args...), base...)...)
	}

	out, err := node("create", "models", "--folder")
	require.NoError(t, err)
	assert.Contains(t, out, "Created folder")

	_, err = node("create", "order.bpmn", "--parent", "models", "--content", "<definitions/>")
	require.NoError(t, err)

	out, err = node("read", "models/order.bpmn")
	require.NoError(t, err)
	assert.Equal(t, "<definitions/>", out)

	_, err = node("write", "models/order.bpmn", "--content", "<definitions id=\"v2\"/>", "-m", "bump")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "models", "order.bpmn"))
	require.NoError(t, err)
	assert.Equal(t, `<definitions id="v2"/>`, string(data))

	_, err = node("write", "models/missing.bpmn", "--content", "x")
	assert.Error(t, err)

	_, err = node("create", "notes.txt")
	require.NoError(t, err)

	out, err = node("list", "--glob", "*.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "notes.txt")
	assert.NotContains(t, out, "models")

	out, err = node("list", "models", "--json")
	require.NoError(t, err)
	var nodes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "order.bpmn", nodes[0]["label"])

	_, err = node("delete", "models")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "models"))
	assert.True(t, os.IsNotExist(err))
}

func TestNodeListInvalidGlob(t *testing.T) {
	_, err := execute(t, "node", "list", "--glob", "[", "--config", writeConfig(t, "{}"), "--root", t.TempDir())
	assert.ErrorContains(t, err, "invalid glob")
}

func TestLogFileClosedWhenCommandFails(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "bpmx.log")
	_, err := execute(t, "node", "list", "--glob", "[", "--config", writeConfig(t, "{}"),
		"--root", t.TempDir(), "--log-file", logPath, "--verbose")
	require.Error(t, err)
	assert.Nil(t, logCloser)
}

func TestHistoryLevels(t *testing.T) {
	cfgPath := writeConfig(t, `
history:
  custom_levels:
    - id: 20
      name: custom-variable
      variables: [amount]
`)
	out, err := execute(t, "history", "levels", "--config", cfgPath)
	require.NoError(t, err)

	for _, want := range []string{"none", "activity", "audit", "full", "custom-variable", "per-process", "fallback"} {
		assert.Contains(t, out, want)
	}
}

func TestHistoryRun(t *testing.T) {
	cfgPath := writeConfig(t, `
history:
  custom_levels:
    - id: 20
      name: custom-variable
      variables: [amount, customer]
`)
	vars := []string{"--var", "amount=42", "--var", "customer=acme", "--var", "note=x", "--var", "secret=y"}

	tests := []struct {
		fixture    string
		delegate   string
		activities int
		variables  int
	}{
		{"process-history-none", "none", 0, 0},
		{"process-history-activity", "activity", 3, 0},
		{"process-history-full", "full", 3, 4},
		{"process-history-custom-variable", "custom-variable", 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			args := append([]string{"history", "run", filepath.Join(fixtures, tt.fixture+".bpmn"), "--json", "--config", cfgPath}, vars...)
			out, err := execute(t, args...)
			require.NoError(t, err)

			var s runSummary
			require.NoError(t, json.Unmarshal([]byte(out), &s))
			assert.Equal(t, tt.fixture, s.Process)
			assert.Equal(t, "per-process", s.Level)
			assert.Equal(t, tt.delegate, s.Delegate)
			assert.Equal(t, tt.activities, s.Activities)
			assert.Equal(t, tt.variables, s.Variables)
		})
	}
}

func TestHistoryRunSQLiteWithMetrics(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "history.db")
	out, err := execute(t, "history", "run", filepath.Join(fixtures, "process-history-full.bpmn"),
		"--config", writeConfig(t, "{}"), "--store", dsn, "--metrics", "--var", "amount=1")
	require.NoError(t, err)

	assert.Contains(t, out, "delegate: full")
	assert.Contains(t, out, "process instances: 1")
	assert.Contains(t, out, "activity instances: 3")
	assert.Contains(t, out, "variable instances: 1")
	assert.Contains(t, out, "decisions produced=true: 9")
}

func TestHistoryRunLevelOverride(t *testing.T) {
	out, err := execute(t, "history", "run", filepath.Join(fixtures, "process-history-full.bpmn"),
		"--config", writeConfig(t, "{}"), "--level", "activity", "--var", "amount=1", "--json")
	require.NoError(t, err)

	var s runSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "activity", s.Level)
	assert.Empty(t, s.Delegate)
	assert.Equal(t, 0, s.Variables)

	_, err = execute(t, "history", "run", filepath.Join(fixtures, "process-history-full.bpmn"),
		"--config", writeConfig(t, "{}"), "--level", "verbose")
	assert.Error(t, err)
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"a=1", "b=x=y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1", "b": "x=y"}, vars)

	_, err = parseVars([]string{"novalue"})
	assert.Error(t, err)
}
