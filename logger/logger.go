// Package logger - zap logger construction.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing debug and info entries to stdout and warnings and errors to
// stderr. Debug entries are only emitted when debug is set.
//
// Arguments:
//   - debug: Enables debug entries and the development encoder.
//
// Returns:
//   - *zap.Logger: The logger.
func New(debug bool) *zap.Logger {
	return zap.New(NewCore(debug, zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr)))
}

// NewCore builds the tee core behind New with explicit sinks.
func NewCore(debug bool, stdout, stderr zapcore.WriteSyncer) zapcore.Core {
	// debug and info level enabler
	debugInfoLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level == zapcore.DebugLevel || level == zapcore.InfoLevel
	})

	// info level enabler
	infoLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level == zapcore.InfoLevel
	})

	// warn, error and fatal level enabler
	warnErrorFatalLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level >= zapcore.WarnLevel
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	outLevel := infoLevel
	if debug {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		outLevel = debugInfoLevel
	}

	return zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), stdout, outLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), stderr, warnErrorFatalLevel),
	)
}
