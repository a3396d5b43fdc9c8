// Package chat owns the conversation session: the transcript reducer, the
// session controller that drives one task invocation end to end, and the
// pollers that keep the local picture honest against backend ground truth.
package chat

import (
	"github.com/autoglm/tui-go/internal/model"
	"github.com/autoglm/tui-go/internal/stream"
)

// Reduce applies one stream event to the transcript and returns the result.
// Events target the in-progress assistant bubble, which by convention is the
// last message when its role is assistant. Any event arriving while the last
// message is not an assistant message is ignored; the input is returned as is.
//
// Reduce never mutates its input: the caller may keep handing out snapshots
// of the old transcript while the new one is being built.
func Reduce(t model.Transcript, ev stream.Event) model.Transcript {
	last, ok := t.Last()
	if !ok || last.Role != model.RoleAssistant {
		return t
	}

	switch ev.Kind {
	case stream.EventStatus:
		last.Thinking = ev.Content

	case stream.EventStep:
		if ev.Action != "" {
			// The action supersedes whatever the model narrated before it.
			last.Thinking = ev.Action
		} else if ev.Thinking != "" {
			last.Thinking = ev.Thinking
		}
		if ev.Message != "" {
			if ev.Finished {
				last.Content = joinLines(last.Content, ev.Message)
			} else {
				// Intermediate results are narration, not final text.
				last.Thinking = joinLines(last.Thinking, "result: "+ev.Message)
			}
		}

	case stream.EventDone:
		// Authoritative final text, superseding step accumulation.
		last.Content = ev.Content
		last.Time = ev.Time
		last.Duration = ev.Duration

	case stream.EventError:
		last.Content = ev.Content

	default:
		return t
	}

	out := t.Clone()
	out[len(out)-1] = last
	return out
}

func joinLines(prev, next string) string {
	if prev == "" {
		return next
	}
	return prev + "\n" + next
}
