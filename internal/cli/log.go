package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          appName,
		ReportTimestamp: level <= log.DebugLevel,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
}

// stage times one step of a command and logs it as a structured entry
// with an elapsed field.
type stage struct {
	logger *log.Logger
	name   string
	start  time.Time
}

func startStage(ctx context.Context, name string) stage {
	return stage{logger: loggerFromContext(ctx), name: name, start: time.Now()}
}

// done logs the stage with keyvals and the elapsed time.
func (s stage) done(keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(s.start).Round(time.Millisecond))
	s.logger.Info(s.name, keyvals...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command's logger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
