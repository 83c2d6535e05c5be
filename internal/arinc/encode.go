package arinc

import "fmt"

// EncodeLabel packs a label into the reversed-order label byte
func EncodeLabel(label int) (byte, error) {
	if err := ValidateLabel(label); err != nil {
		return 0, err
	}
	hundreds := byte(label / 100)
	tens := byte((label / 10) % 10)
	units := byte(label % 10)
	return hundreds<<6 | tens<<3 | units, nil
}

// Encode builds a raw word from a label, an 18-bit magnitude and a sign
func Encode(label int, magnitude uint32, negative bool) (RawWord, error) {
	var w RawWord

	lb, err := EncodeLabel(label)
	if err != nil {
		return w, err
	}
	if magnitude > MagnitudeMask {
		return w, fmt.Errorf("magnitude 0x%X exceeds 18 bits", magnitude)
	}

	w[0] = byte((magnitude >> 14) & 0x0F)
	if negative {
		w[0] |= SignMask
	}
	w[1] = byte((magnitude >> 6) & 0xFF)
	w[2] = byte((magnitude & 0x3F) << 2)
	w[3] = lb
	return w, nil
}

// EncodeValue is the inverse of Scale for a label with full-scale range r.
// The value must lie in [-r, r).
func EncodeValue(label, value, r int) (RawWord, error) {
	if r <= 0 {
		return RawWord{}, fmt.Errorf("range must be positive, got %d", r)
	}
	if value < -r || value >= r {
		return RawWord{}, fmt.Errorf("value %d outside [%d, %d)", value, -r, r)
	}

	negative := value < 0
	if negative {
		value += r
	}
	// round up so that truncation in Scale lands back on value
	magnitude := (uint64(value)*FullScale + uint64(r) - 1) / uint64(r)
	return Encode(label, uint32(magnitude), negative)
}
