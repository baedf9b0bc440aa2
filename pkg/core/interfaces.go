package core

// Logger is the logging surface used by the library packages.
// *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...interface{})
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

// DiscardLogger drops everything it is given
var DiscardLogger Logger = discardLogger{}

// LoggerOrDiscard returns l, or DiscardLogger when l is nil
func LoggerOrDiscard(l Logger) Logger {
	if l == nil {
		return DiscardLogger
	}
	return l
}
