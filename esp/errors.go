package esp

import "errors"

// Precondition violations. These indicate programmer error in the
// caller; they are surfaced immediately and never retried.
var (
	// ErrNoDialer is returned when a Device is constructed without a
	// Dialer.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a
	// Device whose transport was never established.
	ErrNotInitialized = errors.New("device not initialized")

	// ErrEmptyCommand is returned when a command exchange is attempted
	// with an empty command line or an empty success marker.
	ErrEmptyCommand = errors.New("empty command or marker")

	// ErrInvalidTimeout is returned when an operation is given a zero or
	// negative timeout.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrInvalidArgument is returned when an operation is given an empty
	// required string or an out-of-range numeric parameter.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Protocol and timing failures. A command exchange succeeds only when
// its success marker arrives first; every other outcome maps to one of
// these, so callers that only care about pass/fail can treat any
// non-nil error uniformly while diagnostics remain available via
// errors.Is.
var (
	// ErrCommandFailed is returned when the module answered with the
	// generic error marker.
	ErrCommandFailed = errors.New("module reported ERROR")

	// ErrBusy is returned when the module answered with the busy marker.
	ErrBusy = errors.New("module busy")

	// ErrTimeout is returned when no racing marker arrived before the
	// deadline.
	ErrTimeout = errors.New("response timeout")

	// ErrPublishFailed is returned when the module acknowledged the
	// publish header but reported a failed delivery.
	ErrPublishFailed = errors.New("publish failed")

	// ErrRestartFailed is returned when the module could not be brought
	// back to a ready state within the restart deadline.
	ErrRestartFailed = errors.New("module restart failed")

	// ErrNoValue is returned when an integer field was expected but
	// nothing (or a bare minus sign) arrived before the terminator.
	ErrNoValue = errors.New("no integer value")

	// ErrUnexpectedByte is returned when a single expected byte was read
	// but did not match.
	ErrUnexpectedByte = errors.New("unexpected byte")
)

// Channel state errors.
var (
	// ErrAlreadyClosed is returned when Close is called on a Device that
	// has already been closed.
	ErrAlreadyClosed = errors.New("device already closed")

	// ErrUnrecoverable is returned by every operation after a failed
	// transmission cancellation. At that point the transport is in an
	// unknown framing position and no further exchange can be trusted;
	// the caller must close and re-dial the device.
	ErrUnrecoverable = errors.New("device in unrecoverable state")
)
