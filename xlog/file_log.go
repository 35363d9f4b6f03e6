package xlog

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xavl/lib/infra"
)

var (
	_ zapcore.WriteSyncer = (*fileLog)(nil)
	_ io.Closer           = (*fileLog)(nil)
)

// fileLog appends to a single file without rotation.
type fileLog struct {
	dir      string
	filename string
	mu       sync.Mutex
	file     *os.File
	closed   bool
}

func (log *fileLog) Write(p []byte) (n int, err error) {
	log.mu.Lock()
	defer log.mu.Unlock()

	if log.closed {
		return 0, os.ErrClosed
	}
	if log.file == nil {
		if err = log.openOrCreate(); err != nil {
			return 0, err
		}
	}
	return log.file.Write(p)
}

func (log *fileLog) Sync() error {
	log.mu.Lock()
	defer log.mu.Unlock()

	if log.file == nil {
		return nil
	}
	return infra.WrapErrorStack(log.file.Sync(), "[XLogger] sync log file")
}

func (log *fileLog) Close() error {
	log.mu.Lock()
	defer log.mu.Unlock()

	log.closed = true
	if log.file == nil {
		return nil
	}
	err := log.file.Close()
	log.file = nil
	return infra.WrapErrorStack(err, "[XLogger] close log file")
}

func (log *fileLog) path() string {
	if log.dir == "" {
		log.dir = os.TempDir()
	}
	return filepath.Join(log.dir, log.filename)
}

func (log *fileLog) openOrCreate() error {
	pathToLog := log.path()
	if err := os.MkdirAll(log.dir, 0o755); err != nil {
		return infra.WrapErrorStack(err, "[XLogger] unable to create log dir "+log.dir)
	}

	if info, err := os.Stat(pathToLog); err != nil && !os.IsNotExist(err) {
		return infra.WrapErrorStack(err, "[XLogger] stat log file")
	} else if err == nil && info.IsDir() {
		return infra.NewErrorStack("[XLogger] log file <" + pathToLog + "> is a dir")
	}

	f, err := os.OpenFile(pathToLog, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStack(err, "[XLogger] unable to open log file "+pathToLog)
	}
	log.file = f
	return nil
}
