// Package stdlogger adapts the global zerolog logger to printf style logger interfaces
// used by gorm and the aws sdk.
package stdlogger

import (
	"fmt"
	"strings"

	"github.com/aws/smithy-go/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards printf style calls to zerolog.
type Logger struct {
	component string
}

var _ logging.Logger = (*Logger)(nil)

// New returns a Logger tagging every line with the given component.
func New(component ...string) *Logger {
	l := &Logger{}
	if len(component) > 0 {
		l.component = component[0]
	}

	return l
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	e := log.WithLevel(level)
	if l.component != "" {
		e = e.Str("component", l.component)
	}

	return e
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...any) {
	l.event(zerolog.DebugLevel).Msgf(format, v...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...any) {
	l.event(zerolog.InfoLevel).Msgf(format, v...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, v ...any) {
	l.event(zerolog.WarnLevel).Msgf(format, v...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...any) {
	l.event(zerolog.ErrorLevel).Msgf(format, v...)
}

// Printf implements gorm's logger.Writer. gorm prefixes slow and failed queries, the rest is debug output.
func (l *Logger) Printf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)

	switch {
	case strings.Contains(msg, "[error]"):
		l.event(zerolog.ErrorLevel).Msg(msg)
	case strings.Contains(msg, "SLOW SQL"), strings.Contains(msg, "[warn]"):
		l.event(zerolog.WarnLevel).Msg(msg)
	default:
		l.event(zerolog.DebugLevel).Msg(msg)
	}
}

// Logf implements smithy-go logging.Logger for the aws sdk.
func (l *Logger) Logf(classification logging.Classification, format string, v ...any) {
	if classification == logging.Warn {
		l.Warningf(format, v...)
		return
	}

	l.Debugf(format, v...)
}
