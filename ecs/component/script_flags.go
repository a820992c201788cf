package component

// ScriptFlags holds the global variables scripts read and write.
type ScriptFlags struct {
	Values map[string]int64
}

var ScriptFlagsComponent = NewComponent[ScriptFlags]()
