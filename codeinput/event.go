package codeinput

// EventType names the UI events an Input understands.
type EventType string

const (
	EventMount   EventType = "mount"
	EventFocus   EventType = "focus"
	EventChange  EventType = "change"
	EventKeyDown EventType = "keydown"
	EventPaste   EventType = "paste"
)

// Event is a serializable UI event targeted at one slot. Data carries the
// raw input for EventChange and the clipboard text for EventPaste.
type Event struct {
	Type  EventType `json:"type" form:"type"`
	Index int       `json:"index" form:"index"`
	Data  string    `json:"data,omitempty" form:"data"`
	Key   Key       `json:"key,omitempty" form:"key"`
}

// Dispatch routes the event to the matching handler. Unknown event types
// are ignored.
func (in *Input) Dispatch(ev Event) Result {
	switch ev.Type {
	case EventMount:
		return in.Mount()
	case EventFocus:
		return in.FocusAt(ev.Index)
	case EventChange:
		return in.Change(ev.Index, ev.Data)
	case EventKeyDown:
		return in.KeyDown(ev.Index, ev.Key)
	case EventPaste:
		return in.Paste(ev.Index, ev.Data)
	default:
		return noop()
	}
}

// Assemble builds a code from per slot form values, applying the same
// sanitization as typed input. It is used when a form posts the individual
// slots instead of the joined code.
func Assemble(length int, values []string) string {
	in := New(WithLength(length), WithAutoFocus(false))
	for i, v := range values {
		if i >= in.Length() {
			break
		}
		in.Change(i, firstDigit(v))
	}
	return in.Value()
}
