package apihook

// Logger receives controller diagnostics: dispatch, settle and stale drops
// at debug, failed submissions at warn.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type discardLogger struct{}

func (discardLogger) DebugObj(string, string, interface{}) {}
func (discardLogger) WarnObj(string, string, interface{})  {}

func loggerOrDiscard(log Logger) Logger {
	if log == nil {
		return discardLogger{}
	}
	return log
}
