package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")
)

// writeFailures receives events zerolog could not write.
var writeFailures io.Writer = os.Stderr //nolint:gochecknoglobals

// reportWriteError is installed as zerolog.ErrorHandler.
func reportWriteError(err error) {
	_, _ = fmt.Fprintf(writeFailures, "panelkit: dropped log event: %v\n", err)
}
