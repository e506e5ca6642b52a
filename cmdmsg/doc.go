// Package cmdmsg provides a host-side implementation of the CmdMessenger framed,
// escaped, binary command protocol used to exchange typed arguments with an
// embedded companion device (typically an Arduino running the CmdMessenger
// library) over an ordered byte stream.
//
// # Wire Format
//
// A frame is a sequence of fields joined by the field separator and terminated
// by the command separator:
//
//	<cmd_id><fsep><field1><fsep><field2>...<csep>
//
// The defaults are ',' (field), ';' (command) and '/' (escape), matching the
// CmdMessenger 4.x defaults. Field zero carries the command id as ASCII
// decimal; the remaining fields carry argument payloads encoded per their
// format codes. Any occurrence of a reserved byte (field separator, command
// separator, escape byte, or NUL) inside a field payload is transmitted as
// <esc><byte>. Devices may append a line terminator after a frame; the framing
// layer discards it as noise.
//
// # Argument Formats
//
// Argument encoding is selected by a [FormatCode]. Fixed-width numeric formats
// pack to the device's native widths, declared by a [DeviceProfile]: an
// Arduino Uno int is 2 bytes and its double is an alias for the 4-byte float,
// so the host must pack against the device profile rather than its own word
// size. Values are range-checked against the profile before any byte is
// written. The [FormatGuess] format renders values as text and is explicitly
// lossy; prefer declaring formats per command. Falling back to guessing when
// no format is declared requires [WithGuessFallback].
//
// # Concurrency
//
// A [Session] owns one [Transport] and one lock. Send, Receive and the
// background listener's receive-then-enqueue step are serialized by that lock,
// so at most one of them touches the transport at a time. The listener is
// started with [Session.Listen] and delivers messages in parse order through
// [Session.Drain]. Calling Receive directly while a listener is running is
// unsupported: both compete for the same bytes and delivery order between the
// two paths is undefined.
package cmdmsg
