package core

type LogLevel int8

const (
	LogDisabled   LogLevel = -1   // LogDisabled turns logging off.
	LogTraceLevel LogLevel = iota // LogTraceLevel is used for detailed debugging information.
	LogDebugLevel                 // LogDebugLevel is used for debugging information.
	LogInfoLevel                  // LogInfoLevel is used for informational messages.
	LogWarnLevel                  // LogWarnLevel is used for warning messages.
	LogErrorLevel                 // LogErrorLevel is used for error messages.
	LogFatalLevel                 // LogFatalLevel is used for fatal messages that cause the program to exit.
	LogPanicLevel                 // LogPanicLevel is used for panic messages that cause the program to panic.
)

// NewNopLogger returns a Logger that discards everything. Used by tests and
// by components constructed without a logger.
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) WithField(string, any) Logger     { return nopLogger{} }
func (nopLogger) WithFields(map[string]any) Logger { return nopLogger{} }
func (nopLogger) WithError(error) Logger           { return nopLogger{} }
func (nopLogger) Trace(...any)                     {}
func (nopLogger) Debug(...any)                     {}
func (nopLogger) Info(...any)                      {}
func (nopLogger) Warn(...any)                      {}
func (nopLogger) Error(...any)                     {}
func (nopLogger) Fatal(...any)                     {}
func (nopLogger) Tracef(string, ...any)            {}
func (nopLogger) Debugf(string, ...any)            {}
func (nopLogger) Infof(string, ...any)             {}
func (nopLogger) Warnf(string, ...any)             {}
func (nopLogger) Errorf(string, ...any)            {}
func (nopLogger) Fatalf(string, ...any)            {}
func (nopLogger) SetLevel(LogLevel)                {}
func (nopLogger) GetLevel() LogLevel               { return LogDisabled }

// Logger is the logging contract every component receives. Implementations
// live under logger/; components never log through a package-level global.
type Logger interface {
	WithField(key string, value any) Logger  // WithField returns a logger with the given key-value pair.
	WithFields(fields map[string]any) Logger // WithFields returns a logger with the given fields.
	WithError(err error) Logger              // WithError returns a logger with the given error.

	Trace(args ...any) // Trace logs the message with the trace level.
	Debug(args ...any) // Debug logs the message with the debug level.
	Info(args ...any)  // Info logs the message with the info level.
	Warn(args ...any)  // Warn logs the message with the warning level.
	Error(args ...any) // Error logs the message with the error level.
	Fatal(args ...any) // Fatal logs the message and then exits the program.

	Tracef(format string, args ...any) // Tracef formats and logs the message.
	Debugf(format string, args ...any) // Debugf formats and logs the message.
	Infof(format string, args ...any)  // Infof formats and logs the message.
	Warnf(format string, args ...any)  // Warnf formats and logs the message.
	Errorf(format string, args ...any) // Errorf formats and logs the message.
	Fatalf(format string, args ...any) // Fatalf formats and logs the message.

	SetLevel(level LogLevel) // SetLevel sets the logging level for the logger.
	GetLevel() LogLevel      // GetLevel returns the logging level for the logger.
}
