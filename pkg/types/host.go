package types

// Result is the success/failure answer returned across the host boundary
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OK is the successful Result
func OK() Result {
	return Result{Success: true}
}

// Failed wraps err into an unsuccessful Result
func Failed(err error) Result {
	if err == nil {
		return Result{Success: false}
	}
	return Result{Success: false, Error: err.Error()}
}

// ProcessInfo identifies the process owning a text selection
type ProcessInfo struct {
	PID              int    `json:"pid"`
	Name             string `json:"name,omitempty"`
	BundleIdentifier string `json:"bundleIdentifier,omitempty"`
}

// Selection is the currently selected text, if any
type Selection struct {
	Text    string       `json:"text"`
	Process *ProcessInfo `json:"process,omitempty"`
}
