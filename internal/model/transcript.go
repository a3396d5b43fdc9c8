package model

// Transcript is the ordered conversation history. Insertion order is
// chronological. During a live session it is append-only; a history
// refresh or clear replaces it wholesale.
type Transcript []Message

// Append returns the transcript with msg added at the end.
func (t Transcript) Append(msg Message) Transcript {
	return append(t, msg)
}

// Last returns the most recent message, or false when the transcript is empty.
func (t Transcript) Last() (Message, bool) {
	if len(t) == 0 {
		return Message{}, false
	}
	return t[len(t)-1], true
}

// InProgress reports whether the last message is an assistant message
// still receiving stream updates.
func (t Transcript) InProgress() bool {
	last, ok := t.Last()
	return ok && last.Role == RoleAssistant && !last.Final()
}

// Clone returns a copy safe to hand to another goroutine. The message
// values themselves are plain data, so a shallow copy of the slice is enough.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}
