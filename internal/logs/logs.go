// Package logs configures diagnostic logging. Logs go to stderr so stdout
// stays reserved for results.
package logs

import (
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction
type Options struct {
	// Verbose enables debug output; the default level is warn
	Verbose bool
	// Writer defaults to os.Stderr
	Writer io.Writer
}

// New builds a console logger
func New(opts Options) *zap.SugaredLogger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// Nop returns a logger that discards everything
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// NewRunID generates a new UUID identifying one invocation
func NewRunID() string {
	return uuid.New().String()
}
