package model

// RunStatus is the polled ground truth for whether a task is executing on
// the backend. Only the latest snapshot matters; no history is kept.
// Extra fields in the poll response are ignored.
type RunStatus struct {
	Running  bool `json:"running"`
	Stopping bool `json:"stopping"`
}

// SessionState is the derived per-controller state shown in the UI.
// It resets to the zero value whenever no task is active.
type SessionState struct {
	Loading  bool // a task is (believed to be) running
	Stopping bool // a stop was requested and the backend is winding down
	Elapsed  int  // whole seconds since the active task started
}
