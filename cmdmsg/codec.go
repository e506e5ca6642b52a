package cmdmsg

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/go-cmdmsg/logger"
)

// encodeValue converts one argument value into its wire bytes for the given
// format code, packing fixed-width numerics against the device profile.
//
// Inputs are coerced to the nearest native numeric kind; a coercion that
// changes representation (float truncated to integer, string parsed as a
// number) logs a non-fatal warning. Values outside the profile's declared
// range fail with ErrValueRange before any byte is written.
func encodeValue(f FormatCode, value any, p *DeviceProfile, l logger.Logger) ([]byte, error) {
	switch f {
	case FormatChar:
		return encodeChar(value)

	case FormatInt, FormatLong:
		v, err := coerceInt(value, l)
		if err != nil {
			return nil, err
		}
		minVal, maxVal := p.intBounds(f)
		if v < minVal || v > maxVal {
			return nil, fmt.Errorf("%w: %d exceeds the device's %s range [%d, %d]",
				ErrValueRange, v, f, minVal, maxVal)
		}

		return appendFixedUint(nil, p.ByteOrder, p.width(f), uint64(v)), nil

	case FormatUint, FormatUlong:
		v, err := coerceUint(value, l)
		if err != nil {
			return nil, err
		}
		if maxVal := p.uintMax(f); v > maxVal {
			return nil, fmt.Errorf("%w: %d exceeds the device's %s range [0, %d]",
				ErrValueRange, v, f, maxVal)
		}

		return appendFixedUint(nil, p.ByteOrder, p.width(f), v), nil

	case FormatFloat, FormatDouble:
		v, err := coerceFloat(value)
		if err != nil {
			return nil, err
		}
		if maxVal := p.floatMax(f); v > maxVal || v < -maxVal {
			return nil, fmt.Errorf("%w: %g exceeds the device's %s range", ErrValueRange, v, f)
		}

		if p.width(f) == 4 {
			return appendFixedUint(nil, p.ByteOrder, 4, uint64(math.Float32bits(float32(v)))), nil
		}

		return appendFixedUint(nil, p.ByteOrder, 8, math.Float64bits(v)), nil

	case FormatString:
		return encodeString(value, l)

	case FormatBool:
		return encodeBool(value)

	case FormatGuess:
		return encodeGuess(value, l)

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, f)
	}
}

// decodeValue is the exact unpack inverse of encodeValue. No range check is
// applied; the device is trusted to emit in-range data. The concrete result
// types are byte (char), int64 (int/long), uint64 (uint/ulong), float64
// (float/double), string, bool, and any of int64/float64/string for guess.
func decodeValue(f FormatCode, data []byte, p *DeviceProfile, l logger.Logger) (any, error) {
	switch f {
	case FormatChar:
		if len(data) != 1 {
			return nil, fmt.Errorf("%w: char field is %d bytes, want 1", ErrFieldLength, len(data))
		}

		return data[0], nil

	case FormatInt, FormatLong:
		u, err := takeFixedUint(f, data, p)
		if err != nil {
			return nil, err
		}
		shift := uint(64 - p.width(f)*8)

		return int64(u<<shift) >> shift, nil

	case FormatUint, FormatUlong:
		return takeFixedUint(f, data, p)

	case FormatFloat, FormatDouble:
		u, err := takeFixedUint(f, data, p)
		if err != nil {
			return nil, err
		}
		if p.width(f) == 4 {
			return float64(math.Float32frombits(uint32(u))), nil
		}

		return math.Float64frombits(u), nil

	case FormatString:
		return decodeString(data), nil

	case FormatBool:
		if len(data) != 1 {
			return nil, fmt.Errorf("%w: bool field is %d bytes, want 1", ErrFieldLength, len(data))
		}

		return data[0] != 0, nil

	case FormatGuess:
		return decodeGuess(data, l), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, f)
	}
}

// --- Per-format encoders ---

func encodeChar(value any) ([]byte, error) {
	switch v := value.(type) {
	case byte:
		return []byte{v}, nil
	case string:
		if len(v) != 1 {
			return nil, fmt.Errorf("char must be a single byte, not %q", v)
		}

		return []byte{v[0]}, nil
	case []byte:
		if len(v) != 1 {
			return nil, fmt.Errorf("char must be a single byte, not %q", v)
		}

		return []byte{v[0]}, nil
	default:
		return nil, fmt.Errorf("cannot encode %T as char", value)
	}
}

func encodeString(value any, l logger.Logger) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		text := fmt.Sprint(v)
		l.Warn("coercing value into string", "value", v, "result", text)

		return []byte(text), nil
	}
}

func encodeBool(value any) ([]byte, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return []byte{1}, nil
		}

		return []byte{0}, nil
	case int:
		if v == 0 || v == 1 {
			return []byte{byte(v)}, nil
		}
	}

	return nil, fmt.Errorf("%v is not boolean", value)
}

// encodeGuess renders a textual representation that the device can process
// with atoi/atof-style calls. It is not recommended, particularly for floats,
// because values are often mangled silently.
func encodeGuess(value any, l logger.Logger) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	}

	l.Warn("sending value as guessed text; this can give wildly incorrect values, consider specifying a format",
		"value", value)

	switch v := value.(type) {
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'e', 10, 64), nil
	case float64:
		return strconv.AppendFloat(nil, v, 'e', 10, 64), nil
	case bool:
		if v {
			return []byte("1"), nil
		}

		return []byte("0"), nil
	default:
		i, err := coerceInt(value, l)
		if err != nil {
			return nil, fmt.Errorf("cannot encode %T with the guess format", value)
		}

		return strconv.AppendInt(nil, i, 10), nil
	}
}

// --- Per-format decoders ---

func decodeString(data []byte) string {
	s := string(data)
	// Devices pad fixed buffers with NULs; strip those first, then any
	// surrounding line-ending whitespace.
	s = strings.Trim(s, "\x00")

	return strings.TrimSpace(s)
}

// decodeGuess attempts an integer parse, then a floating parse, and falls
// back to string semantics. Round-trips through it are lossy.
func decodeGuess(data []byte, l logger.Logger) any {
	l.Warn("guessing input format; this can give wildly incorrect values, consider specifying a format",
		"data", string(data))

	text := strings.TrimSpace(string(data))
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}

	return decodeString(data)
}

// --- Coercion helpers ---

// coerceInt coerces value to the nearest signed integer, warning when the
// coercion changes representation.
func coerceInt(value any, l logger.Logger) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return coerceInt(uint64(v), l)
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows a signed integer", ErrValueRange, v)
		}

		return int64(v), nil
	case float32:
		return coerceInt(float64(v), l)
	case float64:
		i := int64(v)
		if float64(i) != v {
			l.Warn("coercing float into integer", "value", v, "result", i)
		}

		return i, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q into an integer: %w", v, err)
		}
		l.Warn("coercing string into integer", "value", v, "result", i)

		return i, nil
	default:
		return 0, fmt.Errorf("cannot encode %T as an integer", value)
	}
}

// coerceUint coerces value to the nearest unsigned integer. Negative inputs
// are a range error, not a coercion.
func coerceUint(value any, l logger.Logger) (uint64, error) {
	switch v := value.(type) {
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	default:
		i, err := coerceInt(value, l)
		if err != nil {
			return 0, err
		}
		if i < 0 {
			return 0, fmt.Errorf("%w: %d is negative for an unsigned type", ErrValueRange, i)
		}

		return uint64(i), nil
	}
}

func coerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q into a float: %w", v, err)
		}

		return f, nil
	default:
		return 0, fmt.Errorf("cannot encode %T as a float", value)
	}
}

// --- Fixed-width pack/unpack ---

// appendFixedUint packs the low size bytes of u in the device's byte order.
func appendFixedUint(dst []byte, order binary.ByteOrder, size int, u uint64) []byte {
	var buf [8]byte

	switch size {
	case 1:
		buf[0] = byte(u)
	case 2:
		order.PutUint16(buf[:2], uint16(u))
	case 4:
		order.PutUint32(buf[:4], uint32(u))
	default:
		order.PutUint64(buf[:8], u)
	}

	return append(dst, buf[:size]...)
}

// takeFixedUint unpacks a field of exactly the profile width for f.
func takeFixedUint(f FormatCode, data []byte, p *DeviceProfile) (uint64, error) {
	size := p.width(f)
	if len(data) != size {
		return 0, fmt.Errorf("%w: %s field is %d bytes, want %d", ErrFieldLength, f, len(data), size)
	}

	switch size {
	case 1:
		return uint64(data[0]), nil
	case 2:
		return uint64(p.ByteOrder.Uint16(data)), nil
	case 4:
		return uint64(p.ByteOrder.Uint32(data)), nil
	default:
		return p.ByteOrder.Uint64(data), nil
	}
}
