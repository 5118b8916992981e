// Package errors provides standardized error handling for dropsense.
// It defines error kinds, typed errors for files, configuration, the helper
// process and its wire protocol, and helpers for consistent wrapping.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	InvalidPath
	// Config error kinds
	InvalidConfig
	// Helper process error kinds
	SubprocessSpawnFailed
	SubprocessExited
	SubprocessNotRunning
	// Protocol error kinds
	MalformedEvent
	UnresolvablePayload
	// Platform error kinds
	Unsupported
)

// Common error constants for frequently occurring errors
var (
	ErrNotRunning          = NewProcessError("helper process is not running", "", SubprocessNotRunning, nil)
	ErrUnresolvablePayload = NewProtocolError("drop payload has no usable path", "", UnresolvablePayload, nil)
	ErrUnsupported         = &ApplicationError{msg: "not supported on this platform", kind: Unsupported}
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// ProcessError represents failures of the helper subprocess
type ProcessError struct {
	ApplicationError
	command string
	code    int
	signal  string
}

// NewProcessError creates a new helper process error
func NewProcessError(msg string, command string, kind ErrorKind, err error) *ProcessError {
	return &ProcessError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		command: command,
		code:    -1,
	}
}

// WithExit records how the process terminated
func (e *ProcessError) WithExit(code int, signal string) *ProcessError {
	e.code = code
	e.signal = signal
	return e
}

// Error returns the process error message
func (e *ProcessError) Error() string {
	msg := e.msg
	if e.command != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.command)
	}
	if e.kind == SubprocessExited {
		msg = fmt.Sprintf("%s (code=%d signal=%s)", msg, e.code, e.signal)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

// Command returns the helper command associated with the error
func (e *ProcessError) Command() string {
	return e.command
}

// ExitCode returns the exit code, or -1 if the process did not exit normally
func (e *ProcessError) ExitCode() int {
	return e.code
}

// Signal returns the name of the terminating signal, if any
func (e *ProcessError) Signal() string {
	return e.signal
}

// ProtocolError represents a line or payload that could not be understood
type ProtocolError struct {
	ApplicationError
	input string
}

// NewProtocolError creates a new protocol error
func NewProtocolError(msg string, input string, kind ErrorKind, err error) *ProtocolError {
	return &ProtocolError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		input: input,
	}
}

// Error returns the protocol error message
func (e *ProtocolError) Error() string {
	if e.input != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %q: %v", e.msg, e.input, e.err)
		}
		return fmt.Sprintf("%s: %q", e.msg, e.input)
	}
	return e.ApplicationError.Error()
}

// Input returns the offending input
func (e *ProtocolError) Input() string {
	return e.input
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// KindOf returns the first known kind found in err's chain
func KindOf(err error) ErrorKind {
	for err != nil {
		if kinded, ok := err.(interface{ Kind() ErrorKind }); ok && kinded.Kind() != Unknown {
			return kinded.Kind()
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsSpawnFailure checks if the helper process could not be started
func IsSpawnFailure(err error) bool {
	var procErr *ProcessError
	if errors.As(err, &procErr) {
		return procErr.Kind() == SubprocessSpawnFailed
	}
	return false
}

// IsUnexpectedExit checks if the helper process exited on its own
func IsUnexpectedExit(err error) bool {
	var procErr *ProcessError
	if errors.As(err, &procErr) {
		return procErr.Kind() == SubprocessExited
	}
	return false
}

// IsMalformedEvent checks if the error comes from an unparsable event line
func IsMalformedEvent(err error) bool {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Kind() == MalformedEvent
	}
	return false
}

// IsUnsupported checks if the operation is not available on this platform
func IsUnsupported(err error) bool {
	return KindOf(err) == Unsupported
}
