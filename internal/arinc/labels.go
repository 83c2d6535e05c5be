package arinc

import (
	"errors"
	"fmt"
	"strings"
)

// Quantity identifies the measurement a label carries
type Quantity int

const (
	QuantityUnknown Quantity = iota
	QuantityAltitude
	QuantityOutsideAirTemp
)

// String returns the configuration name of the quantity
func (q Quantity) String() string {
	switch q {
	case QuantityAltitude:
		return "altitude"
	case QuantityOutsideAirTemp:
		return "outside_temp"
	default:
		return "unknown"
	}
}

// ParseQuantity parses a configuration name into a Quantity
func ParseQuantity(s string) (Quantity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "altitude":
		return QuantityAltitude, nil
	case "outside_temp", "sat":
		return QuantityOutsideAirTemp, nil
	default:
		return QuantityUnknown, fmt.Errorf("unknown quantity %q", s)
	}
}

// LabelSpec describes how a recognized label is scaled
type LabelSpec struct {
	Label    int
	Quantity Quantity
	Range    int
}

// Reading is a decoded, scaled value of a recognized label
type Reading struct {
	Label    int
	Quantity Quantity
	Value    int
}

// LabelTable maps recognized labels to their scaling
type LabelTable map[int]LabelSpec

// DefaultLabelTable returns the labels published by the Aspen gateway
func DefaultLabelTable() LabelTable {
	return LabelTable{
		LabelAltitude: {
			Label:    LabelAltitude,
			Quantity: QuantityAltitude,
			Range:    AltitudeRange,
		},
		LabelOutsideAirTemp: {
			Label:    LabelOutsideAirTemp,
			Quantity: QuantityOutsideAirTemp,
			Range:    OutsideAirTempRange,
		},
	}
}

// NewLabelTable builds a table from specs, rejecting invalid entries
func NewLabelTable(specs []LabelSpec) (LabelTable, error) {
	if len(specs) == 0 {
		return nil, errors.New("label table is empty")
	}

	table := make(LabelTable, len(specs))
	for _, spec := range specs {
		if err := ValidateLabel(spec.Label); err != nil {
			return nil, err
		}
		if spec.Quantity == QuantityUnknown {
			return nil, fmt.Errorf("label %03d: quantity not set", spec.Label)
		}
		if spec.Range <= 0 {
			return nil, fmt.Errorf("label %03d: range must be positive, got %d", spec.Label, spec.Range)
		}
		if _, dup := table[spec.Label]; dup {
			return nil, fmt.Errorf("label %03d listed twice", spec.Label)
		}
		table[spec.Label] = spec
	}
	return table, nil
}

// Decode decodes a raw word and scales it if its label is recognized.
// Unrecognized labels return false and are not an error.
func (t LabelTable) Decode(w RawWord) (Reading, bool) {
	spec, ok := t[w.Label()]
	if !ok {
		return Reading{}, false
	}
	return Reading{
		Label:    spec.Label,
		Quantity: spec.Quantity,
		Value:    Scale(w.Magnitude(), w.Negative(), spec.Range),
	}, true
}

// ValidateLabel checks that a label is representable in the label byte:
// a hundreds digit 0-3 followed by two octal digits.
func ValidateLabel(label int) error {
	if label < 0 || label > 377 {
		return fmt.Errorf("label %d out of range 000-377", label)
	}
	if label/100 > 3 || (label/10)%10 > 7 || label%10 > 7 {
		return fmt.Errorf("label %03d is not an octal label", label)
	}
	return nil
}
