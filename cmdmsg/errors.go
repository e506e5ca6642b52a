package cmdmsg

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand indicates that a command name is not present in the
	// session's command registry. It is returned on the send path before any
	// transport interaction.
	ErrUnknownCommand = errors.New("unknown command name")

	// ErrArgumentCount indicates that the number of argument values does not
	// match the number of resolved argument formats.
	ErrArgumentCount = errors.New("argument count does not match format count")

	// ErrValueRange indicates that a numeric value lies outside the range the
	// device profile declares for its type. No partial frame is written.
	ErrValueRange = errors.New("value exceeds device type range")

	// ErrMalformedFrame indicates that the byte stream ended without a command
	// separator and the accumulated bytes were not whitespace-only noise.
	// The concrete error is a *MalformedFrameError carrying the raw bytes.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrNoFormat indicates that no argument format could be resolved for a
	// command and the best-effort guess fallback has been disabled.
	ErrNoFormat = errors.New("no argument format resolved")

	// ErrInvalidFormat indicates an unrecognized format letter. Format strings
	// are rejected at configuration time, not at dispatch time.
	ErrInvalidFormat = errors.New("invalid format code")

	// ErrInvalidSeparators indicates that the three separator bytes are not
	// pairwise distinct ASCII values, or that one of them is NUL.
	ErrInvalidSeparators = errors.New("invalid separator bytes")

	// ErrFieldLength indicates that an inbound field's byte length does not
	// match the fixed width the device profile declares for its format.
	ErrFieldLength = errors.New("field length does not match device type width")
)

// MalformedFrameError records a frame scan that ended without a command
// separator. It unwraps to ErrMalformedFrame and preserves the partial raw
// bytes for diagnostics.
type MalformedFrameError struct {
	raw []byte
}

func newMalformedFrameError(raw []byte) *MalformedFrameError {
	return &MalformedFrameError{raw: raw}
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame: stream ended without command separator (%q)", e.raw)
}

func (e *MalformedFrameError) Unwrap() error {
	return ErrMalformedFrame
}

// Raw returns the partial raw bytes accumulated before the stream ended,
// including any escape bytes as they appeared on the wire.
func (e *MalformedFrameError) Raw() []byte {
	return e.raw
}
