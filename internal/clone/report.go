package clone

import "log/slog"

// Reporter receives the human-readable progress of a run: one Step line when a
// phase starts and one Success line per completed change.
type Reporter interface {
	Step(format string, args ...any)
	Success(format string, args ...any)
}

type nopReporter struct{}

func (nopReporter) Step(string, ...any)    {}
func (nopReporter) Success(string, ...any) {}

// NopReporter discards all progress lines.
func NopReporter() Reporter { return nopReporter{} }

func orNop(r Reporter) Reporter {
	if r == nil {
		return nopReporter{}
	}
	return r
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
