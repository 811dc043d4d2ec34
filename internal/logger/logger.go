// Package logger provides the process-wide structured logger for siv.
//
// Logging goes to stderr so that command output on stdout stays clean. Until
// Initialize is called every call is a no-op.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names. Use these instead of raw strings.
const (
	FieldFile       = "file"
	FieldDecl       = "decl"
	FieldReason     = "reason"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldHash       = "hash"
	FieldTool       = "tool"
	FieldComponent  = "component"
)

// Logger is the global logger. It starts as a no-op.
var Logger = zap.NewNop()

// VerbosityToLevel maps -v counts to zap levels: none is warn, -v is info,
// -vv and above is debug.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.WarnLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// Initialize replaces the global logger. jsonOutput selects the production
// JSON encoder; otherwise a console encoder without timestamps is used.
func Initialize(verbosity int, jsonOutput bool) error {
	level := zap.NewAtomicLevelAt(VerbosityToLevel(verbosity))

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		l, err := cfg.Build()
		if err != nil {
			return err
		}
		Logger = l
		return nil
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	Logger = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(os.Stderr),
		level,
	))
	return nil
}

// Named returns a child of the global logger tagged with a component name.
func Named(component string) *zap.Logger {
	return Logger.With(zap.String(FieldComponent, component))
}

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func Sync() {
	_ = Logger.Sync()
}
