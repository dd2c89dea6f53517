package utils

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/cppla/blogicum/config"
)

var (
	// Logger is the application logger. It discards output until InitLogger runs.
	Logger = zap.NewNop()
	// Sugar wraps Logger.
	Sugar = Logger.Sugar()
)

// InitLogger logs JSON to stdout and, when LOG_PATH is set, to a rotated file.
func InitLogger(cfg config.AppConfig) error {
	level := parseLevel(cfg.LogLevel)
	enc := zapcore.NewJSONEncoder(encoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level)}
	if cfg.LogPath != "" {
		w, err := rollingWriter(cfg.LogPath, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(enc.Clone(), w, level))
	}

	opts := []zap.Option{zap.AddCaller(), zap.Fields(zap.String("app", "blogicum"))}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.Development())
	}
	setLogger(zap.New(zapcore.NewTee(cores...), opts...))
	return nil
}

func setLogger(l *zap.Logger) {
	Logger = l
	Sugar = l.Sugar()
}

func encoderConfig() zapcore.EncoderConfig {
	c := zap.NewProductionEncoderConfig()
	c.TimeKey = "ts"
	c.EncodeTime = timeEncoder
	c.EncodeDuration = zapcore.SecondsDurationEncoder
	return c
}

// rollingWriter creates the log directory and a lumberjack sink with defaults
// of 100MB, 3 backups and 7 days.
func rollingWriter(path string, maxSizeMB, maxBackups, maxAgeDays int, compress bool) (zapcore.WriteSyncer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    nz(maxSizeMB, 100),
		MaxBackups: nz(maxBackups, 3),
		MaxAge:     nz(maxAgeDays, 7),
		Compress:   compress,
	}), nil
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(s string) zapcore.Level {
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func nz(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
