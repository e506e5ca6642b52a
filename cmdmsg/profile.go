package cmdmsg

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DeviceProfile declares the device's native numeric type widths, byte order,
// and the derived min/max bounds used for range checking on the send path.
//
// The profile must match the device's actual native types: an Arduino Uno
// (AVR) has a 2-byte int and its double is an alias for the 4-byte float,
// while ARM boards use a 4-byte int and a true 8-byte double. Packing with
// the host's word sizes instead of the device's silently corrupts arguments.
//
// Char and bool are always one byte and are not configurable.
type DeviceProfile struct {
	// Name identifies the profile in logs and errors.
	Name string

	// ByteOrder is the device's byte order. Arduino-class devices are
	// little-endian.
	ByteOrder binary.ByteOrder

	// IntSize is the width in bytes of int and unsigned int.
	IntSize int
	// LongSize is the width in bytes of long and unsigned long.
	LongSize int
	// FloatSize is the width in bytes of float. Must be 4 or 8.
	FloatSize int
	// DoubleSize is the width in bytes of double. Must be 4 or 8.
	DoubleSize int
}

// ArduinoUnoProfile returns the profile for 8-bit AVR boards (Uno, Nano,
// Mega): 2-byte int, 4-byte long, 4-byte float, and double aliased to float.
func ArduinoUnoProfile() *DeviceProfile {
	return &DeviceProfile{
		Name:       "arduino-uno",
		ByteOrder:  binary.LittleEndian,
		IntSize:    2,
		LongSize:   4,
		FloatSize:  4,
		DoubleSize: 4,
	}
}

// ArduinoDueProfile returns the profile for 32-bit ARM boards (Due, Zero):
// 4-byte int, 4-byte long, 4-byte float, 8-byte double.
func ArduinoDueProfile() *DeviceProfile {
	return &DeviceProfile{
		Name:       "arduino-due",
		ByteOrder:  binary.LittleEndian,
		IntSize:    4,
		LongSize:   4,
		FloatSize:  4,
		DoubleSize: 8,
	}
}

// Validate checks that every declared width is a legal fixed width.
func (p *DeviceProfile) Validate() error {
	if p.ByteOrder == nil {
		return fmt.Errorf("device profile %q: byte order is nil", p.Name)
	}

	for _, w := range []struct {
		name string
		size int
	}{
		{"int", p.IntSize},
		{"long", p.LongSize},
	} {
		switch w.size {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("device profile %q: invalid %s size %d", p.Name, w.name, w.size)
		}
	}

	for _, w := range []struct {
		name string
		size int
	}{
		{"float", p.FloatSize},
		{"double", p.DoubleSize},
	} {
		if w.size != 4 && w.size != 8 {
			return fmt.Errorf("device profile %q: invalid %s size %d", p.Name, w.name, w.size)
		}
	}

	return nil
}

// width returns the fixed byte width of the given format code, or 0 for
// variable-width formats (string, guess).
func (p *DeviceProfile) width(f FormatCode) int {
	switch f {
	case FormatChar, FormatBool:
		return 1
	case FormatInt, FormatUint:
		return p.IntSize
	case FormatLong, FormatUlong:
		return p.LongSize
	case FormatFloat:
		return p.FloatSize
	case FormatDouble:
		return p.DoubleSize
	default:
		return 0
	}
}

// intBounds returns the signed range for the given signed integer format.
func (p *DeviceProfile) intBounds(f FormatCode) (int64, int64) {
	size := p.width(f)
	if size == 8 {
		return math.MinInt64, math.MaxInt64
	}
	shift := uint(size*8 - 1)

	return -1 << shift, 1<<shift - 1
}

// uintMax returns the maximum value for the given unsigned integer format.
func (p *DeviceProfile) uintMax(f FormatCode) uint64 {
	size := p.width(f)
	if size == 8 {
		return math.MaxUint64
	}

	return 1<<uint(size*8) - 1
}

// floatMax returns the largest finite magnitude for the given floating format.
func (p *DeviceProfile) floatMax(f FormatCode) float64 {
	if p.width(f) == 4 {
		return math.MaxFloat32
	}

	return math.MaxFloat64
}
