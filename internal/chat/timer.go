package chat

// ElapsedTimer derives the elapsed-time display for an active session.
// It has no effect on any other component.
type ElapsedTimer struct {
	seconds int
}

// Advance moves the timer one second forward while active, or resets it to
// zero otherwise, and returns the current count.
func (t *ElapsedTimer) Advance(active bool) int {
	if active {
		t.seconds++
	} else {
		t.seconds = 0
	}
	return t.seconds
}

// Seconds returns the current count without advancing.
func (t *ElapsedTimer) Seconds() int {
	return t.seconds
}
