package cmdmsg

import "fmt"

// FormatCode selects how an argument's bytes are produced and interpreted.
//
// It is a closed enumeration: unknown format letters are rejected when a
// format string is parsed, at configuration time, never at dispatch time.
type FormatCode uint8

const (
	// FormatChar is a single byte transmitted verbatim.
	FormatChar FormatCode = iota
	// FormatInt is the device's native signed int (2 bytes on AVR).
	FormatInt
	// FormatUint is the device's native unsigned int.
	FormatUint
	// FormatLong is the device's native signed long.
	FormatLong
	// FormatUlong is the device's native unsigned long.
	FormatUlong
	// FormatFloat is the device's native float (IEEE 754 single on AVR).
	FormatFloat
	// FormatDouble is the device's native double. On 8-bit boards double is
	// an alias for the 4-byte float; the device profile declares the width.
	FormatDouble
	// FormatString is a byte string; reserved bytes are escaped on the wire.
	FormatString
	// FormatBool is a single 0/1 byte.
	FormatBool
	// FormatGuess renders the value as text and guesses the type on receive.
	// It is explicitly unreliable: round-trips through it are lossy. Prefer
	// declaring formats per command.
	FormatGuess
)

// Format letters follow the PyCmdMessenger convention.
const formatLetters = "ciIlLfds?g"

// Letter returns the single-letter wire notation for the format code.
func (f FormatCode) Letter() byte {
	if int(f) >= len(formatLetters) {
		return 0
	}

	return formatLetters[f]
}

// String returns a human-readable name for the format code.
func (f FormatCode) String() string {
	switch f {
	case FormatChar:
		return "char"
	case FormatInt:
		return "int"
	case FormatUint:
		return "uint"
	case FormatLong:
		return "long"
	case FormatUlong:
		return "ulong"
	case FormatFloat:
		return "float"
	case FormatDouble:
		return "double"
	case FormatString:
		return "string"
	case FormatBool:
		return "bool"
	case FormatGuess:
		return "guess"
	default:
		return fmt.Sprintf("FormatCode(%d)", uint8(f))
	}
}

// ParseFormat maps a single format letter to its FormatCode.
func ParseFormat(letter byte) (FormatCode, error) {
	for i := 0; i < len(formatLetters); i++ {
		if formatLetters[i] == letter {
			return FormatCode(i), nil
		}
	}

	return 0, fmt.Errorf("%w: unrecognized format letter %q", ErrInvalidFormat, letter)
}

// ParseFormats maps a format string (one letter per argument, e.g. "if?")
// to format codes. An empty string yields an empty, non-nil slice.
func ParseFormats(formats string) ([]FormatCode, error) {
	codes := make([]FormatCode, 0, len(formats))
	for i := 0; i < len(formats); i++ {
		code, err := ParseFormat(formats[i])
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	return codes, nil
}

// guessFormats returns n FormatGuess codes, the discouraged per-argument
// fallback used when no explicit or registered format exists.
func guessFormats(n int) []FormatCode {
	codes := make([]FormatCode, n)
	for i := range codes {
		codes[i] = FormatGuess
	}

	return codes
}
