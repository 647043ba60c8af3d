package common

import "log/slog"

// SlogResetLevel sets the default slog level and returns a function restoring the previous one.
// Pairs well with defer in tests:
//
//	defer common.SlogResetLevel(slog.LevelWarn)()
func SlogResetLevel(level slog.Level) (reset func()) {
	oldLevel := slog.SetLogLoggerLevel(level)
	return func() {
		slog.SetLogLoggerLevel(oldLevel)
	}
}

// SlogLevelForVerbosity maps a -v count to a level: 0 warn, 1 info, 2+ debug.
func SlogLevelForVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
