package avionics

import (
	"context"
	"fmt"
)

// Data is a complete avionics sample
type Data struct {
	Altitude    int `json:"altitude"`     // barometric altitude, ft
	OutsideTemp int `json:"outside_temp"` // static air temperature, °C
}

// String renders the sample for logs
func (d Data) String() string {
	return fmt.Sprintf("altitude=%dft oat=%dC", d.Altitude, d.OutsideTemp)
}

// Source provides avionics data from one gateway vendor.
//
// RequestData blocks for at most the source's probe and session budgets and
// returns nil when no complete sample could be obtained this cycle. It never
// returns an error; the caller retries on its next poll. Implementations must
// tolerate overlapping calls.
type Source interface {
	RequestData(ctx context.Context) *Data
}
