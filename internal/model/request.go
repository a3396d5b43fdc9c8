package model

// TaskRequest is a task submission. LoopCount asks for N strictly sequential
// repetitions of the same instruction; the controller never runs them
// concurrently. IsNewTask tells the backend to reset the agent's context
// before this task rather than continuing the previous one.
type TaskRequest struct {
	Message   string `json:"message"`
	IsNewTask bool   `json:"is_new_task"`
	LoopCount int    `json:"loop_count,omitempty"`
}
