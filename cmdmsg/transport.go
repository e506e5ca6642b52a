package cmdmsg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// ErrReadTimeout is returned by Transport.ReadByte when no byte arrived
// within the transport's read timeout. A timed-out read is the protocol
// layer's sole source of "no progress" signaling; the frame parser treats it
// as the end of the current scan, never as an error by itself.
var ErrReadTimeout = errors.New("read timed out, no byte available")

// Transport is the external byte-stream abstraction the protocol layer reads
// and writes against. Implementations wrap the physical link (a serial port,
// a serial-over-TCP bridge, a test pipe) and declare the device's native
// numeric widths via Profile.
//
// Opening and configuring the physical link (port, baud rate) is the
// caller's concern, not this package's.
type Transport interface {
	// ReadByte returns the next byte from the stream, or ErrReadTimeout if
	// none arrived within the transport's read timeout.
	ReadByte() (byte, error)

	// ReadLine reads up to and including the next '\n'. On timeout it
	// returns whatever was accumulated; an empty result is reported as
	// ErrReadTimeout.
	ReadLine() ([]byte, error)

	// Write writes a complete frame in one operation.
	Write(p []byte) error

	// Profile returns the device's declared width/byte-order profile.
	Profile() *DeviceProfile

	// Close releases the underlying stream.
	Close() error
}

// byteSource is the minimal read surface the frame parser consumes. Both a
// live Transport and an in-memory buffer satisfy it.
type byteSource interface {
	ReadByte() (byte, error)
}

// NetTransport adapts a net.Conn to the Transport interface using per-read
// deadlines. It is intended for serial-over-TCP bridges (ser2net and the
// like) and for net.Pipe-backed tests.
type NetTransport struct {
	conn        net.Conn
	reader      *bufio.Reader
	profile     *DeviceProfile
	readTimeout time.Duration
}

var _ Transport = (*NetTransport)(nil)

// DefaultReadTimeout is the per-read deadline applied when none is given.
const DefaultReadTimeout = 100 * time.Millisecond

// NewNetTransport wraps conn with the given device profile and per-read
// timeout. A zero or negative timeout selects DefaultReadTimeout.
func NewNetTransport(conn net.Conn, profile *DeviceProfile, readTimeout time.Duration) (*NetTransport, error) {
	if conn == nil {
		return nil, errors.New("cmdmsg: net transport conn is nil")
	}
	if profile == nil {
		return nil, errors.New("cmdmsg: net transport profile is nil")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	return &NetTransport{
		conn:        conn,
		reader:      bufio.NewReader(conn),
		profile:     profile,
		readTimeout: readTimeout,
	}, nil
}

// ReadByte reads a single byte with the configured deadline. A deadline
// expiry or a remote close maps to ErrReadTimeout: in both cases there is no
// byte, and frame classification is the parser's job.
func (t *NetTransport) ReadByte() (byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return 0, err
	}

	b, err := t.reader.ReadByte()
	if err != nil {
		if isNoDataErr(err) {
			return 0, ErrReadTimeout
		}

		return 0, fmt.Errorf("cmdmsg: transport read: %w", err)
	}

	return b, nil
}

// ReadLine reads until '\n' or the read deadline, whichever comes first.
func (t *NetTransport) ReadLine() ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return nil, err
	}

	data, err := t.reader.ReadBytes('\n')
	if err != nil {
		if !isNoDataErr(err) {
			return nil, fmt.Errorf("cmdmsg: transport read line: %w", err)
		}
		if len(data) == 0 {
			return nil, ErrReadTimeout
		}
	}

	return data, nil
}

// Write writes the full frame, looping on short writes.
func (t *NetTransport) Write(p []byte) error {
	for written := 0; written < len(p); {
		n, err := t.conn.Write(p[written:])
		written += n

		if err != nil {
			return fmt.Errorf("cmdmsg: transport write: %w", err)
		}
	}

	return nil
}

// Profile returns the device profile declared at construction.
func (t *NetTransport) Profile() *DeviceProfile {
	return t.profile
}

// Close closes the underlying connection.
func (t *NetTransport) Close() error {
	return t.conn.Close()
}

// isNoDataErr reports whether err means "no byte available" rather than a
// transport fault: a deadline expiry or an orderly end of stream.
func isNoDataErr(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, io.EOF) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
