package zerolog

import (
	"fmt"

	"github.com/raykavin/ruleforge/core"

	"github.com/rs/zerolog"
)

type ZerologAdapter struct {
	*zerolog.Logger
}

func NewAdapter(logger *zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger}
}

// GetLevel implements core.Logger.
func (z *ZerologAdapter) GetLevel() core.LogLevel {
	return toLevel(z.Logger.GetLevel())
}

// SetLevel implements core.Logger.
func (z *ZerologAdapter) SetLevel(level core.LogLevel) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}

// Trace implements core.Logger.
func (z *ZerologAdapter) Trace(args ...any) {
	z.Logger.Trace().Msg(fmt.Sprint(args...))
}

// Tracef implements core.Logger.
func (z *ZerologAdapter) Tracef(format string, args ...any) {
	z.Logger.Trace().Msgf(format, args...)
}

// Debug implements core.Logger.
func (z *ZerologAdapter) Debug(args ...any) {
	z.Logger.Debug().Msg(fmt.Sprint(args...))
}

// Debugf implements core.Logger.
func (z *ZerologAdapter) Debugf(format string, args ...any) {
	z.Logger.Debug().Msgf(format, args...)
}

// Info implements core.Logger.
func (z *ZerologAdapter) Info(args ...any) {
	z.Logger.Info().Msg(fmt.Sprint(args...))
}

// Infof implements core.Logger.
func (z *ZerologAdapter) Infof(format string, args ...any) {
	z.Logger.Info().Msgf(format, args...)
}

// Warn implements core.Logger.
func (z *ZerologAdapter) Warn(args ...any) {
	z.Logger.Warn().Msg(fmt.Sprint(args...))
}

// Warnf implements core.Logger.
func (z *ZerologAdapter) Warnf(format string, args ...any) {
	z.Logger.Warn().Msgf(format, args...)
}

// Error implements core.Logger.
func (z *ZerologAdapter) Error(args ...any) {
	z.Logger.Error().Msg(fmt.Sprint(args...))
}

// Errorf implements core.Logger.
func (z *ZerologAdapter) Errorf(format string, args ...any) {
	z.Logger.Error().Msgf(format, args...)
}

// Fatal implements core.Logger.
func (z *ZerologAdapter) Fatal(args ...any) {
	z.Logger.Fatal().Msg(fmt.Sprint(args...))
}

// Fatalf implements core.Logger.
func (z *ZerologAdapter) Fatalf(format string, args ...any) {
	z.Logger.Fatal().Msgf(format, args...)
}

// WithError implements core.Logger.
func (z *ZerologAdapter) WithError(err error) core.Logger {
	newLogger := z.With().Err(err).Logger()
	return &ZerologAdapter{&newLogger}
}

// WithField implements core.Logger.
func (z *ZerologAdapter) WithField(key string, value any) core.Logger {
	newLogger := z.With().Interface(key, fmt.Sprint(value)).Logger()
	return &ZerologAdapter{&newLogger}
}

// WithFields implements core.Logger.
func (z *ZerologAdapter) WithFields(fields map[string]any) core.Logger {
	newLogger := z.With().Fields(fields).Logger()
	return &ZerologAdapter{&newLogger}
}

// toLevel converts zerolog.Level to core.LogLevel.
func toLevel(level zerolog.Level) core.LogLevel {
	levelMap := map[zerolog.Level]core.LogLevel{
		zerolog.Disabled:   core.LogDisabled,
		zerolog.TraceLevel: core.LogTraceLevel,
		zerolog.DebugLevel: core.LogDebugLevel,
		zerolog.InfoLevel:  core.LogInfoLevel,
		zerolog.WarnLevel:  core.LogWarnLevel,
		zerolog.ErrorLevel: core.LogErrorLevel,
		zerolog.FatalLevel: core.LogFatalLevel,
		zerolog.PanicLevel: core.LogPanicLevel,
	}

	if l, ok := levelMap[level]; ok {
		return l
	}

	return core.LogInfoLevel
}

// toZerologLevel converts core.LogLevel to zerolog.Level.
func toZerologLevel(level core.LogLevel) zerolog.Level {
	levelMap := map[core.LogLevel]zerolog.Level{
		core.LogDisabled:   zerolog.Disabled,
		core.LogTraceLevel: zerolog.TraceLevel,
		core.LogDebugLevel: zerolog.DebugLevel,
		core.LogInfoLevel:  zerolog.InfoLevel,
		core.LogWarnLevel:  zerolog.WarnLevel,
		core.LogErrorLevel: zerolog.ErrorLevel,
		core.LogFatalLevel: zerolog.FatalLevel,
		core.LogPanicLevel: zerolog.PanicLevel,
	}

	if l, ok := levelMap[level]; ok {
		return l
	}

	return zerolog.InfoLevel
}
