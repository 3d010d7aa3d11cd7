package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for CLI flag counts.
const (
	VerbosityUser  = 0 // No flags: artifact results and errors only
	VerbosityInfo  = 1 // -v: + analysis progress and warning summaries
	VerbosityDebug = 2 // -vv: + resolution, trim, and render details
)

// VerbosityToLevel maps verbosity flags (-v, -vv) to zap log levels.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch verbosity {
	case VerbosityUser:
		return zapcore.WarnLevel
	case VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
