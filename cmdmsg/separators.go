package cmdmsg

import "fmt"

// nul doubles as an end-of-data sentinel in some transports, so it is always
// part of the reserved set even though it is not a configurable separator.
const nul byte = 0x00

// Separators holds the three single-byte separator values fixed at session
// construction. The field separator joins fields within a frame, the command
// separator terminates a frame, and the escape byte marks a reserved byte
// that must be interpreted literally.
//
// All three must be distinct ASCII bytes and none may be NUL. They must match
// the values the device's CmdMessenger instance was initialized with.
type Separators struct {
	Field   byte
	Command byte
	Escape  byte
}

// DefaultSeparators returns the CmdMessenger 4.x defaults: ',' ';' '/'.
func DefaultSeparators() Separators {
	return Separators{Field: ',', Command: ';', Escape: '/'}
}

// Validate reports whether the separator bytes form a usable profile:
// pairwise distinct, ASCII, and none equal to NUL.
func (s Separators) Validate() error {
	bytes := [3]byte{s.Field, s.Command, s.Escape}
	names := [3]string{"field", "command", "escape"}

	for i, b := range bytes {
		if b == nul {
			return fmt.Errorf("%w: %s separator is NUL", ErrInvalidSeparators, names[i])
		}
		if b > 0x7f {
			return fmt.Errorf("%w: %s separator 0x%02X is not ASCII", ErrInvalidSeparators, names[i], b)
		}
	}

	if s.Field == s.Command || s.Field == s.Escape || s.Command == s.Escape {
		return fmt.Errorf("%w: separators must be pairwise distinct (field=%q command=%q escape=%q)",
			ErrInvalidSeparators, s.Field, s.Command, s.Escape)
	}

	return nil
}

// isReserved reports whether b must be escaped inside a field payload.
func (s Separators) isReserved(b byte) bool {
	return b == s.Field || b == s.Command || b == s.Escape || b == nul
}

// escapeAppend appends payload to dst, inserting the escape byte immediately
// before every occurrence of a reserved value. All other bytes pass through
// unchanged. Escaping then unescaping any payload reproduces it exactly.
func (s Separators) escapeAppend(dst, payload []byte) []byte {
	for _, b := range payload {
		if s.isReserved(b) {
			dst = append(dst, s.Escape)
		}
		dst = append(dst, b)
	}

	return dst
}

// escapeResidualNUL escapes any literal NUL in a fully compiled frame that is
// not already covered by an escape byte. Per-field escaping already protects
// payload NULs, so this is a final safety pass over the joined frame; it must
// not re-escape an already-escaped NUL, which would mangle the payload on the
// receiving side.
func (s Separators) escapeResidualNUL(frame []byte) []byte {
	residual := 0
	escaped := false
	for _, b := range frame {
		switch {
		case escaped:
			escaped = false
		case b == s.Escape:
			escaped = true
		case b == nul:
			residual++
		}
	}

	if residual == 0 {
		return frame
	}

	out := make([]byte, 0, len(frame)+residual)
	escaped = false
	for _, b := range frame {
		switch {
		case escaped:
			escaped = false
		case b == s.Escape:
			escaped = true
		case b == nul:
			out = append(out, s.Escape)
		}
		out = append(out, b)
	}

	return out
}
