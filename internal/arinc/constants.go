package arinc

// Word layout constants
const (
	WordSize = 4 // bytes per ARINC-429 word on the wire

	FullScale     = 0x40000 // 2^18, denominator of the 18-bit data field
	MagnitudeMask = 0x3FFFF // 18 data bits

	SignMask = 0x80 // sign bit in byte 0
)

// Well-known labels carried by the Aspen gateway
const (
	LabelAltitude       = 203 // barometric altitude, ft
	LabelOutsideAirTemp = 213 // static air temperature, °C
)

// Full-scale ranges of the well-known labels
const (
	AltitudeRange       = 131072 // ft
	OutsideAirTempRange = 512    // °C
)
