package component

// PlayerTag marks the controlled actor, the only actor trigger volumes react to.
type PlayerTag struct{}

var PlayerTagComponent = NewComponent[PlayerTag]()
