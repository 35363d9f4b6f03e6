package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/benz9527/xavl/lib/kv"
	"github.com/benz9527/xavl/xlog"
)

const demoScenario = `
name: demo
ops:
  - op: insert
    keys: [10, 20, 30]
    expect: true
  - op: insert
    keys: [20]
    expect: false
  - op: find
    keys: [10, 40]
  - op: remove
    keys: [20, 50]
print: true
`

func TestLoadScenario(t *testing.T) {
	testcases := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:  "default key by id",
			input: demoScenario,
		},
		{
			name:   "unknown op",
			input:  "name: bad\nops:\n  - op: upsert\n    keys: [1]\n",
			errMsg: `unknown op "upsert"`,
		},
		{
			name:   "unknown key by",
			input:  "name: bad\nkey_by: color\nops: []\n",
			errMsg: `unknown key_by "color"`,
		},
		{
			name:   "names without key by name",
			input:  "name: bad\nops:\n  - op: insert\n    names: [a]\n",
			errMsg: `names need key_by "name"`,
		},
		{
			name:   "keys with key by name",
			input:  "name: bad\nkey_by: name\nops:\n  - op: insert\n    keys: [1]\n",
			errMsg: `keys need key_by "id"`,
		},
		{
			name:   "unknown field",
			input:  "name: bad\nops: []\nrepeat: 3\n",
			errMsg: "decode scenario",
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			sc, err := LoadScenario(strings.NewReader(tc.input))
			if tc.errMsg != "" {
				require.Error(tt, err)
				require.Contains(tt, err.Error(), tc.errMsg)
				return
			}
			require.NoError(tt, err)
			require.Equal(tt, keyByID, sc.KeyBy)
			require.Len(tt, sc.Ops, 4)
		})
	}
}

func TestRunnerRun(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(demoScenario))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	report, err := NewRunner(nil, out, 1).Run(context.Background(), sc)
	require.NoError(t, err)
	require.Equal(t, &Report{
		Scenario:   "demo",
		Inserted:   3,
		Duplicates: 1,
		Removed:    1,
		Missing:    1,
		Found:      1,
		NotFound:   1,
		Len:        2,
		Height:     2,
	}, report)
	require.Equal(t, "# demo\n|------+ 30 h=2\n       \\------+ 10 h=1\n", out.String())
}

func TestRunnerExpectFailures(t *testing.T) {
	input := `
name: wrong
ops:
  - op: insert
    keys: [1, 2]
    expect: false
  - op: find
    keys: [3]
    expect: true
`
	sc, err := LoadScenario(strings.NewReader(input))
	require.NoError(t, err)

	report, err := NewRunner(xlog.NewNopXLogger(), nil, 0).Run(context.Background(), sc)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	require.Contains(t, errs[0].Error(), "op #0 insert key 1: expect false, got true")
	require.Contains(t, errs[2].Error(), "op #1 find key 3: expect true, got false")
	require.Equal(t, 2, report.Inserted)
	require.Equal(t, int64(2), report.Len)
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	lines := make([]map[string]any, 0, 4)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestRunnerLogging(t *testing.T) {
	input := `
name: logged
ops:
  - op: insert
    keys: [1, 1]
  - op: insert
    keys: [1]
    expect: false
  - op: remove
    keys: [9]
  - op: find
    keys: [1]
    expect: false
`
	sc, err := LoadScenario(strings.NewReader(input))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	logger := xlog.NewXLogger(
		xlog.WithXLoggerWriter(buf),
		xlog.WithXLoggerLevel(xlog.LogLevelWarn),
		xlog.WithXLoggerContextFieldExtract(ScenarioContextKey),
	)
	_, err = NewRunner(logger, nil, 1).Run(context.Background(), sc)
	require.Error(t, err)

	lines := logLines(t, buf)
	require.Len(t, lines, 3)
	testcases := []struct {
		lvl string
		msg string
		key float64
	}{
		{"WARN", "duplicate key", 1},
		{"WARN", "remove missing key", 9},
		{"ERROR", "expectation failed", 1},
	}
	for i, tc := range testcases {
		require.Equal(t, tc.lvl, lines[i]["lvl"])
		require.Equal(t, tc.msg, lines[i]["msg"])
		require.Equal(t, tc.key, lines[i]["key"])
		require.Equal(t, "logged", lines[i]["scenario"])
	}
	require.Contains(t, lines[2]["error"], "op #3 find key 1: expect false, got true")
}

func TestRunnerKeyByName(t *testing.T) {
	input := `
name: names
key_by: name
ops:
  - op: insert
    names: [alpha, beta, gamma, delta]
  - op: insert
    names: [beta]
    expect: false
  - op: remove
    names: [gamma]
    expect: true
  - op: find
    names: [alpha, gamma]
`
	sc, err := LoadScenario(strings.NewReader(input))
	require.NoError(t, err)

	report, err := NewRunner(nil, nil, 1).Run(context.Background(), sc)
	require.NoError(t, err)
	require.Equal(t, 4, report.Inserted)
	require.Equal(t, 1, report.Duplicates)
	require.Equal(t, 1, report.Removed)
	require.Equal(t, 1, report.Found)
	require.Equal(t, 1, report.NotFound)
	require.Equal(t, int64(3), report.Len)

	hashField := sc.hashField()
	require.Equal(t, kv.NewHasher[string]().Hash("alpha"), hashField(&record{name: "alpha"}))
}

func TestRunnerCanceled(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(demoScenario))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewRunner(nil, nil, 0).Run(ctx, sc)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, report.Inserted)
}

func TestRunCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoScenario), 0o600))

	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"run", "-f", path, "--log-level", "error"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Contains(t, out.String(), "scenario: demo\n")
	require.Contains(t, out.String(), "inserted: 3\n")
	require.Contains(t, out.String(), "height: 2\n")

	cmd = newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "-f", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestRunCommandPlainLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoScenario), 0o600))
	logPath := filepath.Join(dir, "avlctl.log")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "-f", path, "--log-level", "warn", "--plain", "--log-file", logPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	cols := strings.Split(lines[0], "\t")
	_, err = time.Parse(time.DateTime, cols[0])
	require.NoError(t, err)
	require.Equal(t, "\x1b[33mWARN\x1b[0m", cols[1])
	require.Contains(t, lines[0], "remove missing key")
	require.Contains(t, lines[0], "demo")
}

func TestVersionCommand(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version", "--log-level", "error"})
	require.NoError(t, cmd.Execute())
	require.Equal(t, version+"\n", out.String())
}

func TestRunCommandLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoScenario), 0o600))
	logPath := filepath.Join(dir, "logs", "avlctl.log")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "-f", path, "--log-level", "debug", "--log-file", logPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"op replayed"`)
	require.Contains(t, string(data), `"component":"avltree"`)
}
