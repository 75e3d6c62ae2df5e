package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger embeds zap.Logger so call sites use zap's API directly.
type Logger struct {
	*zap.Logger
}

// Config defines logger construction options.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
}

// New builds a logger writing to stdout. Production mode emits JSON;
// development mode switches to a colored console encoding.
func New(cfg Config) (*Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.MessageKey = "message"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return &Logger{Logger: zap.New(core, opts...)}, nil
}

// NewDefault returns the production logger: info-level JSON on stdout.
func NewDefault() *Logger {
	l, err := New(Config{Level: "info"})
	if err != nil {
		return &Logger{Logger: zap.NewNop()}
	}
	return l
}

// NewDevelopment returns a debug-level console logger.
func NewDevelopment() *Logger {
	l, err := New(Config{Level: "debug", Development: true})
	if err != nil {
		return &Logger{Logger: zap.NewNop()}
	}
	return l
}

// Session returns the standard field for a session id.
func Session(id string) zap.Field {
	return zap.String("session_id", id)
}

// Workspace returns the standard field for a workspace id.
func Workspace(id string) zap.Field {
	return zap.String("workspace_id", id)
}

// Snapshot returns the standard field for a snapshot id.
func Snapshot(id string) zap.Field {
	return zap.String("snapshot_id", id)
}
