package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventKind discriminates the record variants the backend emits on the
// chat stream.
type EventKind string

const (
	EventStatus EventKind = "status" // progress note for the thinking line
	EventStep   EventKind = "step"   // one agent step (thinking/action/message)
	EventDone   EventKind = "done"   // authoritative final answer
	EventError  EventKind = "error"  // remote-reported failure, terminal
)

// Event is one decoded stream record. Only the fields for its Kind are
// populated; the rest stay zero.
type Event struct {
	Kind     EventKind
	Content  string // status, done, error
	Thinking string // step
	Action   string // step, already rendered for display
	Message  string // step
	Finished bool   // step: whether Message is final output or narration
	Time     string // done
	Duration string // done
}

// eventRecord is the wire shape. Action can be a bare string or a structured
// object depending on the step, so it is kept raw and rendered afterwards.
type eventRecord struct {
	Type     string          `json:"type"`
	Content  string          `json:"content"`
	Thinking string          `json:"thinking"`
	Action   json.RawMessage `json:"action"`
	Message  string          `json:"message"`
	Finished bool            `json:"finished"`
	Time     string          `json:"time"`
	Duration string          `json:"duration"`
}

// DecodeEvent parses one complete record into an Event. A record that is not
// valid JSON or carries an unknown type is reported as an error; callers drop
// the record and keep reading, the stream itself is never failed.
func DecodeEvent(record string) (Event, error) {
	var rec eventRecord
	if err := json.Unmarshal([]byte(record), &rec); err != nil {
		return Event{}, fmt.Errorf("decode stream record: %w", err)
	}

	switch EventKind(rec.Type) {
	case EventStatus:
		return Event{Kind: EventStatus, Content: rec.Content}, nil
	case EventStep:
		return Event{
			Kind:     EventStep,
			Thinking: rec.Thinking,
			Action:   renderAction(rec.Action),
			Message:  rec.Message,
			Finished: rec.Finished,
		}, nil
	case EventDone:
		return Event{
			Kind:     EventDone,
			Content:  rec.Content,
			Time:     rec.Time,
			Duration: rec.Duration,
		}, nil
	case EventError:
		return Event{Kind: EventError, Content: rec.Content}, nil
	default:
		return Event{}, fmt.Errorf("decode stream record: unknown type %q", rec.Type)
	}
}

// renderAction turns the step's action payload into a display string. Plain
// string actions pass through; structured actions (e.g. {"tap":[100,200]})
// are shown as compact JSON.
func renderAction(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}
