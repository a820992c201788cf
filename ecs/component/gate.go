package component

// Gate is a door-like object that opens over a fixed number of ticks when
// something interacts with it.
type Gate struct {
	OpenTicks int
	Progress  int
	Opening   bool
	Open      bool
	// Lift is how far the gate rises when fully open; BaseY is its closed
	// height.
	Lift  float64
	BaseY float64
}

var GateComponent = NewComponent[Gate]()
