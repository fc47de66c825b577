package log

import (
	stdlog "log"
	"strings"

	"github.com/go-logr/stdr"
	"go.opentelemetry.io/otel"
)

// InitAdapters routes the output of the standard library logger and of
// OpenTelemetry's internal logger through logger.
func InitAdapters(logger Logger) {
	stdlog.SetOutput(logWriter{logger})
	stdlog.SetFlags(0)
	otel.SetLogger(stdr.New(logOutput{logger}))
}

// logWriter implements the io.Writer interface.
type logWriter struct {
	Logger
}

func (lw logWriter) Write(p []byte) (int, error) {
	// Lines received by logWriter will always have a trailing newline.
	lw.Logger.Info(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// logOutput implements the Output method stdr needs from a standard library
// logger.
type logOutput struct {
	Logger
}

func (l logOutput) Output(calldepth int, logline string) error {
	l.Logger.Info(logline)
	return nil
}
