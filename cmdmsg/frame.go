package cmdmsg

import (
	"errors"
	"strconv"
)

// frameParser reconstructs one complete frame from an unstructured byte
// stream. It is a two-state machine:
//
//   - accumulating: bytes append to the current field; the field separator
//     closes a field, the command separator terminates the frame, and the
//     escape byte switches to the escaped state without being emitted.
//   - escaped: a reserved byte is emitted literally; any other byte is a
//     malformed escape, recovered by emitting the withheld escape byte
//     followed by the new byte verbatim.
//
// A parser instance scans exactly one frame and is not reused.
type frameParser struct {
	sep Separators

	fields  [][]byte
	cur     []byte
	raw     []byte
	escaped bool
}

func newFrameParser(sep Separators) *frameParser {
	return &frameParser{
		sep: sep,
		cur: []byte{},
	}
}

// feed consumes one byte and reports whether the frame is complete.
func (p *frameParser) feed(b byte) bool {
	p.raw = append(p.raw, b)

	if p.escaped {
		p.escaped = false
		if p.sep.isReserved(b) {
			p.cur = append(p.cur, b)
		} else {
			// Malformed escape: keep the escape byte and the new byte
			// verbatim. A recovery policy, not an error.
			p.cur = append(p.cur, p.sep.Escape, b)
		}

		return false
	}

	switch b {
	case p.sep.Escape:
		p.escaped = true
	case p.sep.Field:
		p.fields = append(p.fields, p.cur)
		p.cur = []byte{}
	case p.sep.Command:
		p.fields = append(p.fields, p.cur)
		return true
	default:
		p.cur = append(p.cur, b)
	}

	return false
}

// scan drives the parser over src until a command separator, a read timeout,
// or a transport error.
//
// Outcomes:
//   - complete frame: the ordered raw fields, nil error
//   - idle stream (nothing accumulated, or whitespace-only line-ending
//     noise): nil fields, nil error
//   - stream ended mid-frame: nil fields, *MalformedFrameError with the
//     partial raw bytes
//   - transport fault: nil fields, the fault
func (p *frameParser) scan(src byteSource) ([][]byte, error) {
	for {
		b, err := src.ReadByte()
		if err != nil {
			if errors.Is(err, ErrReadTimeout) {
				break
			}

			return nil, err
		}

		if p.feed(b) {
			return p.fields, nil
		}
	}

	// No command separator was seen. Nothing accumulated means the device
	// was simply idle within the timeout window.
	if len(p.fields) == 0 && len(p.cur) == 0 {
		return nil, nil
	}

	// Line-ending noise after a previous frame's separator is idle too.
	if isWhitespaceOnly(p.raw) {
		return nil, nil
	}

	return nil, newMalformedFrameError(p.raw)
}

// isWhitespaceOnly reports whether raw contains only space, tab, CR or LF
// bytes. This is the explicit boundary between "stray terminator noise" and
// a truly truncated frame.
func isWhitespaceOnly(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}

	return true
}

// memSource feeds a fixed byte slice to the frame parser, reporting
// ErrReadTimeout at the end. ReceiveAll uses it to re-parse buffered lines.
type memSource struct {
	data []byte
	pos  int
}

func (m *memSource) ReadByte() (byte, error) {
	if m.pos >= len(m.data) {
		return 0, ErrReadTimeout
	}
	b := m.data[m.pos]
	m.pos++

	return b, nil
}

// buildFrame compiles one outbound frame: the command id as ASCII decimal,
// each encoded argument escaped and joined with the field separator, the
// command separator, and a final residual-NUL pass over the whole frame.
func buildFrame(sep Separators, id int, encoded [][]byte) []byte {
	size := 4
	for _, f := range encoded {
		size += len(f)*2 + 1
	}

	frame := make([]byte, 0, size)
	frame = strconv.AppendInt(frame, int64(id), 10)
	for _, f := range encoded {
		frame = append(frame, sep.Field)
		frame = sep.escapeAppend(frame, f)
	}
	frame = append(frame, sep.Command)

	return sep.escapeResidualNUL(frame)
}
