package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunBench(t *testing.T) {
	testcases := []struct {
		name    string
		cfg     BenchConfig
		wantLen int64
		errMsg  string
	}{
		{
			name:    "sequential half removed",
			cfg:     BenchConfig{N: 1000, Seed: 7, CheckEvery: 100, Sequential: true, RemoveRatio: 0.5},
			wantLen: 500,
		},
		{
			name:    "random all removed",
			cfg:     BenchConfig{N: 2000, Seed: 42, CheckEvery: 250, RemoveRatio: 1},
			wantLen: 0,
		},
		{
			name:    "random none removed",
			cfg:     BenchConfig{N: 1024, Seed: 3},
			wantLen: 1024,
		},
		{
			name:   "empty",
			cfg:    BenchConfig{N: 0},
			errMsg: "bench size must be positive",
		},
		{
			name:   "ratio out of range",
			cfg:    BenchConfig{N: 10, RemoveRatio: 1.5},
			errMsg: "out of [0, 1]",
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			report, err := RunBench(context.Background(), nil, tc.cfg)
			if tc.errMsg != "" {
				require.Error(tt, err)
				require.Contains(tt, err.Error(), tc.errMsg)
				return
			}
			require.NoError(tt, err)
			require.Equal(tt, tc.cfg.N, report.Keys)
			require.Equal(tt, tc.cfg.N, report.Inserted)
			require.Equal(tt, tc.wantLen, report.Len)
			if tc.wantLen == 0 {
				require.Zero(tt, report.Height)
				return
			}
			// 1.44 * log2(n) bounds the height of an AVL tree.
			require.LessOrEqual(tt, report.Height, int64(15))
		})
	}
}

func TestBenchKeysReproducible(t *testing.T) {
	cfg := BenchConfig{N: 64, Seed: 11}
	k1, err := benchKeys(cfg)
	require.NoError(t, err)
	k2, err := benchKeys(cfg)
	require.NoError(t, err)
	require.Equal(t, k1, k2)

	cfg.Sequential = true
	seq, err := benchKeys(cfg)
	require.NoError(t, err)
	require.Equal(t, benchElem(12), seq[0])
	require.Equal(t, benchElem(75), seq[63])
}

func TestBenchCommand(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"bench", "-n", "500", "--seq", "--remove-ratio", "0.2", "--log-level", "error"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Contains(t, out.String(), "keys: 500\n")
	require.Contains(t, out.String(), "removed: 100\n")
	require.Contains(t, out.String(), "len: 400\n")
}
