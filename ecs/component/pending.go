package component

// Pending reports completion of work started on an earlier tick.
type Pending interface {
	Done() bool
}

type completed struct{}

func (completed) Done() bool { return true }

// Completed is a Pending that has already finished.
var Completed Pending = completed{}

// PendingFunc adapts a predicate to Pending.
type PendingFunc func() bool

func (f PendingFunc) Done() bool {
	if f == nil {
		return true
	}
	return f()
}
