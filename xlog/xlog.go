package xlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xavl/lib/infra"
)

var printBanner = sync.Once{}

var _ XLogger = (*xLogger)(nil)

type xLogger struct {
	logger              atomic.Pointer[zap.Logger]
	ctxFields           map[string]string
	ctxKeys             []string
	dynamicLevelEnabler zap.AtomicLevel
	writers             []zapcore.WriteSyncer
	closers             []io.Closer
	encoder             logEncoderType
}

// IncreaseLogLevel we can increase or decrease the log level concurrently.
func (l *xLogger) IncreaseLogLevel(level zapcore.Level) {
	l.dynamicLevelEnabler.SetLevel(level)
}

func (l *xLogger) Sync() error {
	return l.logger.Load().Sync()
}

// Close only releases the outputs opened by this logger, the loggers
// derived by Named share them and must not be used afterwards.
func (l *xLogger) Close() error {
	err := l.Sync()
	for _, c := range l.closers {
		err = multierr.Append(err, c.Close())
	}
	l.closers = nil
	return err
}

func (l *xLogger) Level() string {
	return l.dynamicLevelEnabler.Level().String()
}

func (l *xLogger) Banner(banner Banner) {
	printBanner.Do(func() {
		cfg := zapcore.EncoderConfig{
			MessageKey:    "banner", // Required, but the plain text will be ignored.
			LevelKey:      coreKeyIgnored,
			TimeKey:       coreKeyIgnored,
			CallerKey:     coreKeyIgnored,
			StacktraceKey: coreKeyIgnored,
		}
		enc := getEncoderByType(l.encoder)(cfg)
		cores := make([]zapcore.Core, 0, len(l.writers))
		for _, ws := range l.writers {
			cores = append(cores, zapcore.NewCore(enc.Clone(), ws, zapcore.InfoLevel))
		}
		_l := zap.New(XLogTeeCore(cores...))
		switch l.encoder {
		case PlainText:
			_l.Info(banner.PlainText())
		default:
			_l.Info(banner.JSON())
		}
	})
}

func (l *xLogger) Named(component string) XLogger {
	child := &xLogger{
		ctxFields:           l.ctxFields,
		ctxKeys:             l.ctxKeys,
		dynamicLevelEnabler: l.dynamicLevelEnabler,
		writers:             l.writers,
		encoder:             l.encoder,
	}
	child.logger.Store(l.logger.Load().Named(component))
	return child
}

func (l *xLogger) Debug(msg string, fields ...zap.Field) {
	l.logger.Load().Debug(msg, fields...)
}

func (l *xLogger) Info(msg string, fields ...zap.Field) {
	l.logger.Load().Info(msg, fields...)
}

func (l *xLogger) Warn(msg string, fields ...zap.Field) {
	l.logger.Load().Warn(msg, fields...)
}

func (l *xLogger) Error(err error, msg string, fields ...zap.Field) {
	newFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		newFields = append(newFields, zap.String("error", err.Error()))
	}
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

func errorStackFields(err error) []zap.Field {
	var es infra.ErrorStack
	if errors.As(err, &es) {
		return []zap.Field{zap.Inline(es)}
	}
	if err != nil {
		return []zap.Field{zap.String("error", err.Error())}
	}
	return []zap.Field{}
}

func (l *xLogger) ErrorStack(err error, msg string, fields ...zap.Field) {
	newFields := append(errorStackFields(err), fields...)
	l.logger.Load().Error(msg, newFields...)
}

func (l *xLogger) DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	newFields = append(newFields, fields...)
	l.logger.Load().Debug(msg, newFields...)
}

func (l *xLogger) InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	newFields = append(newFields, fields...)
	l.logger.Load().Info(msg, newFields...)
}

func (l *xLogger) WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	newFields = append(newFields, fields...)
	l.logger.Load().Warn(msg, newFields...)
}

func (l *xLogger) ErrorContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	if err != nil {
		newFields = append(newFields, zap.String("error", err.Error()))
	}
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

func (l *xLogger) ErrorStackContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	newFields = append(newFields, errorStackFields(err)...)
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

func (l *xLogger) Logf(lvl zapcore.Level, format string, args ...any) {
	l.logger.Load().Log(lvl, fmt.Sprintf(format, args...))
}

func (l *xLogger) ErrorStackf(err error, format string, args ...any) {
	l.logger.Load().Log(zap.ErrorLevel, fmt.Sprintf(format, args...), errorStackFields(err)...)
}

func (l *xLogger) extractFieldsFromContext(ctx context.Context) []zap.Field {
	if ctx == nil || len(l.ctxKeys) == 0 {
		return []zap.Field{}
	}

	newFields := make([]zap.Field, 0, len(l.ctxKeys))
	for _, key := range l.ctxKeys {
		mapTo := l.ctxFields[key]
		if mapTo == ContextKeyMapToOmitempty {
			continue
		}
		if v := ctx.Value(key); v != nil {
			newFields = append(newFields, zap.Any(mapTo, v))
		} else {
			newFields = append(newFields, zap.String(mapTo, "nil"))
		}
	}
	return newFields
}

type loggerCfg struct {
	ctxFields   map[string]string
	writers     []zapcore.WriteSyncer
	closers     []io.Closer
	encoderType *logEncoderType
	lvlEncoder  zapcore.LevelEncoder
	tsEncoder   zapcore.TimeEncoder
	level       *zapcore.Level
}

func (cfg *loggerCfg) apply(l *xLogger) {
	if cfg.encoderType != nil {
		l.encoder = *cfg.encoderType
	} else {
		l.encoder = JSON
	}

	if cfg.level != nil {
		l.dynamicLevelEnabler = zap.NewAtomicLevelAt(*cfg.level)
	} else {
		l.dynamicLevelEnabler = zap.NewAtomicLevelAt(getLogLevelOrDefault(os.Getenv("XLOG_LVL")))
	}

	// The context keys are fixed after construction, so readers need no lock.
	l.ctxFields = cfg.ctxFields
	l.ctxKeys = make([]string, 0, len(cfg.ctxFields))
	for key := range cfg.ctxFields {
		l.ctxKeys = append(l.ctxKeys, key)
	}
	sort.Strings(l.ctxKeys)

	if cfg.lvlEncoder == nil {
		cfg.lvlEncoder = zapcore.CapitalLevelEncoder
	}

	if cfg.tsEncoder == nil {
		cfg.tsEncoder = zapcore.ISO8601TimeEncoder
	}

	if len(cfg.writers) == 0 {
		cfg.writers = []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	}
	l.writers = cfg.writers
	l.closers = cfg.closers
}

type XLoggerOption func(*loggerCfg) error

func NewXLogger(opts ...XLoggerOption) XLogger {
	cfg := &loggerCfg{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cfg); err != nil {
			panic(err)
		}
	}
	xl := &xLogger{}
	cfg.apply(xl)

	cores := make([]zapcore.Core, 0, len(cfg.writers))
	for _, ws := range cfg.writers {
		cores = append(cores, newConsoleCore(
			xl.dynamicLevelEnabler,
			xl.encoder,
			ws,
			cfg.lvlEncoder,
			cfg.tsEncoder,
		))
	}

	// Disable zap logger error stack.
	l := zap.New(
		XLogTeeCore(cores...),
		zap.AddCallerSkip(1), // Use caller filename as service
		zap.AddCaller(),
	)
	xl.logger.Store(l)
	return xl
}

// NewNopXLogger drops every entry.
func NewNopXLogger() XLogger {
	xl := &xLogger{
		ctxFields:           map[string]string{},
		dynamicLevelEnabler: zap.NewAtomicLevelAt(zapcore.FatalLevel),
		encoder:             JSON,
	}
	xl.logger.Store(zap.NewNop())
	return xl
}

// WithXLoggerWriter adds one more output. Every output gets its own core,
// the entries are teed to all of them.
func WithXLoggerWriter(w io.Writer) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if w == nil {
			return infra.NewErrorStack("[XLogger] nil writer")
		}
		if cfg.writers == nil {
			cfg.writers = make([]zapcore.WriteSyncer, 0, 4)
		}
		cfg.writers = append(cfg.writers, zapcore.Lock(zapcore.AddSync(w)))
		return nil
	}
}

// WithXLoggerFileWriter appends the entries to dir/filename. The file is
// created by the first write and closed by XLogger.Close.
func WithXLoggerFileWriter(dir, filename string) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if strings.TrimSpace(filename) == "" {
			return infra.NewErrorStack("[XLogger] empty log filename")
		}
		fl := &fileLog{dir: dir, filename: filename}
		cfg.writers = append(cfg.writers, fl)
		cfg.closers = append(cfg.closers, fl)
		return nil
	}
}

func WithXLoggerStdErrWriter() XLoggerOption {
	return WithXLoggerWriter(os.Stderr)
}

func WithXLoggerEncoder(logEnc logEncoderType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if logEnc >= _encMax {
			return infra.NewErrorStack("unknown xlogger encoder")
		}
		cfg.encoderType = &logEnc
		return nil
	}
}

func WithXLoggerLevel(lvl logLevel) XLoggerOption {
	return func(cfg *loggerCfg) error {
		_lvl := lvl.zapLevel()
		cfg.level = &_lvl
		return nil
	}
}

func WithXLoggerLevelEncoder(lvlEnc zapcore.LevelEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if lvlEnc == nil {
			lvlEnc = zapcore.CapitalColorLevelEncoder
		}
		cfg.lvlEncoder = lvlEnc
		return nil
	}
}

func WithXLoggerTimeEncoder(tsEnc zapcore.TimeEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if tsEnc == nil {
			tsEnc = zapcore.ISO8601TimeEncoder
		}
		cfg.tsEncoder = tsEnc
		return nil
	}
}

func WithXLoggerContextFieldExtract(field string, mapTo ...string) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if len(field) == 0 {
			return nil
		}
		if cfg.ctxFields == nil {
			cfg.ctxFields = make(map[string]string, 8)
		}
		if len(mapTo) == 0 || mapTo[0] == ContextKeyMapToItself {
			mapTo = []string{field}
		}
		cfg.ctxFields[field] = mapTo[0]
		return nil
	}
}

func getLogLevelOrDefault(level string) zapcore.Level {
	if len(strings.TrimSpace(level)) == 0 {
		return zapcore.DebugLevel
	}

	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LogLevelInfo.String():
		return zapcore.InfoLevel
	case LogLevelWarn.String():
		return zapcore.WarnLevel
	case LogLevelError.String():
		return zapcore.ErrorLevel
	case LogLevelDebug.String():
		fallthrough
	default:
	}
	return zapcore.DebugLevel
}
