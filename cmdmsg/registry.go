package cmdmsg

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// UnknownCommandName is the sentinel name delivered for inbound frames whose
// command id is not present in the registry. The message is still delivered
// with its raw fields preserved; an unresolved id is never fatal on receive.
const UnknownCommandName = "unknown"

// CommandRegistry maps command names to wire ids and back. The wire id of a
// command is its position in the ordered name list given at construction,
// which must match the order the device registered its callbacks in.
//
// Per-command default argument formats may be registered at construction or
// later from any goroutine; resolution priority is explicit per-call formats,
// then registered formats, then the per-argument guess fallback.
type CommandRegistry struct {
	names []string
	ids   map[string]int

	// formats may be registered after construction while a listener is
	// already polling, so it lives in a concurrent map.
	formats *xsync.MapOf[string, []FormatCode]
}

// NewCommandRegistry builds a registry from the ordered command name list.
// Duplicate or empty names are a configuration error.
func NewCommandRegistry(names []string) (*CommandRegistry, error) {
	reg := &CommandRegistry{
		names:   make([]string, len(names)),
		ids:     make(map[string]int, len(names)),
		formats: xsync.NewMapOf[string, []FormatCode](),
	}

	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("cmdmsg: command %d has an empty name", i)
		}
		if _, exists := reg.ids[name]; exists {
			return nil, fmt.Errorf("cmdmsg: duplicate command name %q", name)
		}
		reg.names[i] = name
		reg.ids[name] = i
	}

	return reg, nil
}

// Len returns the number of registered commands.
func (r *CommandRegistry) Len() int {
	return len(r.names)
}

// ResolveID returns the wire id for name, or ErrUnknownCommand if the name
// was not in the construction-time list.
func (r *CommandRegistry) ResolveID(name string) (int, error) {
	id, ok := r.ids[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	return id, nil
}

// ResolveName returns the command name for a wire id. For ids outside the
// table it returns UnknownCommandName and false; the caller decides how to
// warn.
func (r *CommandRegistry) ResolveName(id int) (string, bool) {
	if id < 0 || id >= len(r.names) {
		return UnknownCommandName, false
	}

	return r.names[id], true
}

// RegisterFormats records the default argument format string for a command.
// The name must already be registered and every format letter must be valid;
// both are checked here, at configuration time.
func (r *CommandRegistry) RegisterFormats(name, formats string) error {
	if _, ok := r.ids[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	codes, err := ParseFormats(formats)
	if err != nil {
		return fmt.Errorf("cmdmsg: formats for command %q: %w", name, err)
	}

	r.formats.Store(name, codes)

	return nil
}

// Formats returns the registered default formats for a command, if any.
func (r *CommandRegistry) Formats(name string) ([]FormatCode, bool) {
	return r.formats.Load(name)
}
