package scan

import (
	"errors"
	"fmt"

	"github.com/ygrebnov/errorc"
)

// Namespace prefixes the package's sentinel errors.
const Namespace = "scan"

var (
	// ErrInvalidRoot is returned when the scan root is missing or not a directory.
	ErrInvalidRoot = errors.New(Namespace + ": invalid root")
	// ErrQueueClosed is returned by Queue.Push after Close.
	ErrQueueClosed = errors.New(Namespace + ": push on closed queue")
	// ErrInvalidOptions is returned for options that cannot be applied.
	ErrInvalidOptions = errors.New(Namespace + ": invalid options")
)

// RootError reports a root path that cannot be scanned.
// It is returned before any worker is started.
type RootError struct {
	// Path is the root as given by the caller.
	Path string
	// Err is the underlying cause.
	Err error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("root %q: %v", e.Path, e.Err)
}

func (e *RootError) Unwrap() error { return e.Err }

// Is reports ErrInvalidRoot for every RootError.
func (e *RootError) Is(target error) bool { return target == ErrInvalidRoot }

// OptionError reports an option value that cannot be applied.
type OptionError struct {
	// Option names the rejected option.
	Option string
	// Err is the underlying cause.
	Err error
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %s: %v", e.Option, e.Err)
}

func (e *OptionError) Unwrap() error { return e.Err }

// Is reports ErrInvalidOptions for every OptionError.
func (e *OptionError) Is(target error) bool { return target == ErrInvalidOptions }

func invalidOption(option, reason string) error {
	return &OptionError{Option: option, Err: errorc.With(ErrInvalidOptions, errorc.String("reason", reason))}
}
