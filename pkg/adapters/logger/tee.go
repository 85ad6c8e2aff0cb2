package logger

import "github.com/user/camsync/pkg/ports"

// TeeLogger forwards every message to each of its loggers.
type TeeLogger struct {
	loggers []ports.Logger
}

// Tee combines loggers. Nil entries are skipped; a single logger is returned
// unwrapped.
func Tee(loggers ...ports.Logger) ports.Logger {
	var live []ports.Logger
	for _, l := range loggers {
		if l != nil {
			live = append(live, l)
		}
	}
	switch len(live) {
	case 0:
		return NewNoop()
	case 1:
		return live[0]
	}
	return &TeeLogger{loggers: live}
}

func (t *TeeLogger) Debug(msg string, args ...interface{}) {
	for _, l := range t.loggers {
		l.Debug(msg, args...)
	}
}

func (t *TeeLogger) Info(msg string, args ...interface{}) {
	for _, l := range t.loggers {
		l.Info(msg, args...)
	}
}

func (t *TeeLogger) Warn(msg string, args ...interface{}) {
	for _, l := range t.loggers {
		l.Warn(msg, args...)
	}
}

func (t *TeeLogger) Error(msg string, args ...interface{}) {
	for _, l := range t.loggers {
		l.Error(msg, args...)
	}
}

func (t *TeeLogger) WithComponent(component string) ports.Logger {
	out := make([]ports.Logger, len(t.loggers))
	for i, l := range t.loggers {
		out[i] = l.WithComponent(component)
	}
	return &TeeLogger{loggers: out}
}
