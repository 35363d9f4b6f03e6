package xlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log := &fileLog{dir: dir, filename: "avl.log"}
	require.NoError(t, log.Sync())

	n, err := log.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.NoError(t, log.Sync())
	require.NoError(t, log.Close())

	_, err = log.Write([]byte("closed\n"))
	require.ErrorIs(t, err, os.ErrClosed)

	// Appends to the existing file.
	log = &fileLog{dir: dir, filename: "avl.log"}
	_, err = log.Write([]byte("world\n"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	data, err := os.ReadFile(filepath.Join(dir, "avl.log"))
	require.NoError(t, err)
	require.Equal(t, "hello\nworld\n", string(data))
}

func TestFileLogIsDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "avl.log"), 0o755))
	log := &fileLog{dir: dir, filename: "avl.log"}
	_, err := log.Write([]byte("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "is a dir")
}

func TestXLoggerFileWriter(t *testing.T) {
	dir := t.TempDir()
	logger := NewXLogger(
		WithXLoggerFileWriter(dir, "x.log"),
		WithXLoggerLevel(LogLevelInfo),
	)
	logger.Named("avltree").Info("released")
	logger.Debug("dropped")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, "x.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	m := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &m))
	require.Equal(t, "released", m["msg"])
	require.Equal(t, "avltree", m["component"])

	require.Panics(t, func() {
		NewXLogger(WithXLoggerFileWriter(dir, " "))
	})
}
