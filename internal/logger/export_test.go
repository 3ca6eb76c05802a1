package logger

import "io"

// SetWriteFailures redirects dropped event reports for the duration of a test.
func SetWriteFailures(w io.Writer) func() {
	prev := writeFailures
	writeFailures = w

	return func() { writeFailures = prev }
}

// ReportWriteError exposes the zerolog error handler.
var ReportWriteError = reportWriteError
