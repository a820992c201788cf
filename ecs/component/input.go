package component

// Input stores per-frame input state for an entity. MoveX and MoveZ are in
// [-1, 1] on the horizontal plane.
type Input struct {
	MoveX float64
	MoveZ float64
}

var InputComponent = NewComponent[Input]()
