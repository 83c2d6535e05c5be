package avionics

import "go429/internal/arinc"

// Accumulator folds decoded readings into a sample.
// It belongs to a single gateway session and must not be reused.
type Accumulator struct {
	altitude    int
	outsideTemp int
	hasAltitude bool
	hasTemp     bool
	observed    int
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Observe records a reading. Later readings of the same quantity replace
// earlier ones. Readings of other quantities are ignored.
func (a *Accumulator) Observe(r arinc.Reading) {
	switch r.Quantity {
	case arinc.QuantityAltitude:
		a.altitude = r.Value
		a.hasAltitude = true
	case arinc.QuantityOutsideAirTemp:
		a.outsideTemp = r.Value
		a.hasTemp = true
	default:
		return
	}
	a.observed++
}

// Complete reports whether both altitude and outside temperature are known
func (a *Accumulator) Complete() bool {
	return a.hasAltitude && a.hasTemp
}

// Altitude returns the last altitude seen, if any
func (a *Accumulator) Altitude() (int, bool) {
	return a.altitude, a.hasAltitude
}

// OutsideTemp returns the last outside temperature seen, if any
func (a *Accumulator) OutsideTemp() (int, bool) {
	return a.outsideTemp, a.hasTemp
}

// Observed returns how many readings were applied
func (a *Accumulator) Observed() int {
	return a.observed
}

// Data returns the sample once complete
func (a *Accumulator) Data() (Data, bool) {
	if !a.Complete() {
		return Data{}, false
	}
	return Data{Altitude: a.altitude, OutsideTemp: a.outsideTemp}, true
}
