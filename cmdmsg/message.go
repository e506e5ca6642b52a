package cmdmsg

import "time"

// Message is one decoded inbound frame.
type Message struct {
	// Name is the resolved command name, or UnknownCommandName if the wire
	// id was outside the registry.
	Name string

	// Args holds the decoded argument values in field order. The concrete
	// types follow the format codes used to decode them: byte for char,
	// int64 for int/long, uint64 for uint/ulong, float64 for float/double,
	// string, bool, and one of int64/float64/string for guess.
	Args []any

	// Raw preserves the unescaped raw field payloads, including field zero
	// (the command id as ASCII). It is always populated, so frames with an
	// unresolved command id keep their data for diagnostics.
	Raw [][]byte

	// ReceivedAt is the time the frame's command separator was parsed.
	ReceivedAt time.Time
}
