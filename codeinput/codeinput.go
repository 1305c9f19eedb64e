// Package codeinput models a segmented numeric code entry: N single digit
// slots that together represent one code string.
//
// An Input owns its slot sequence. Event handlers (Change, KeyDown, Paste)
// run synchronously: they mutate the slots, notify the OnChange callback with
// the joined code and return a Result that carries the focus index the
// rendering layer should move to. Focus is never moved as a hidden side
// effect; callers read Result.Focus and apply it.
//
// The joined code skips empty slots, so a sparse fill such as
// ["1", "", "2", "", "", ""] is reported as "12". Use Complete to tell a
// fully entered code apart from a partial one.
package codeinput

import "strings"

// DefaultLength is the number of slots used when no length is configured.
const DefaultLength = 6

// NoFocus is the Result.Focus value used when an event does not move focus.
const NoFocus = -1

// Key identifies the keyboard keys the input reacts to.
type Key string

const (
	KeyBackspace  Key = "Backspace"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
)

// Result is the outcome of a single event.
type Result struct {
	// Changed reports whether the slots were mutated and OnChange fired.
	Changed bool `json:"changed"`
	// Focus is the slot that should receive focus next, or NoFocus.
	Focus int `json:"focus"`
	// PreventDefault reports whether the default UI behavior for the event
	// must be suppressed (caret movement on arrows, native paste).
	PreventDefault bool `json:"prevent_default"`
}

// FocusRequested reports whether the event asked for a focus change.
func (r Result) FocusRequested() bool {
	return r.Focus != NoFocus
}

func noop() Result {
	return Result{Focus: NoFocus}
}

// Option configures an Input.
type Option func(*Input)

// WithLength sets the number of slots. Non positive values are ignored.
func WithLength(n int) Option {
	return func(in *Input) {
		if n > 0 {
			in.length = n
		}
	}
}

// WithValue pre-fills the slots from an externally supplied code.
func WithValue(value string) Option {
	return func(in *Input) {
		in.value = value
	}
}

// WithSlots restores a previously rendered slot sequence. Each entry keeps
// only its first digit. When no explicit length is given the slot count
// follows len(slots).
func WithSlots(slots []string) Option {
	return func(in *Input) {
		in.restore = append([]string(nil), slots...)
	}
}

// WithOnChange registers the change notification callback.
func WithOnChange(fn func(code string)) Option {
	return func(in *Input) {
		in.onChange = fn
	}
}

// WithDisabled makes every slot reject input.
func WithDisabled(disabled bool) Option {
	return func(in *Input) {
		in.disabled = disabled
	}
}

// WithAutoFocus controls whether slot 0 takes focus on Mount.
func WithAutoFocus(autoFocus bool) Option {
	return func(in *Input) {
		in.autoFocus = autoFocus
	}
}

// Input is one segmented code widget instance.
type Input struct {
	length    int
	slots     []string
	focus     int
	disabled  bool
	autoFocus bool
	value     string
	restore   []string
	onChange  func(code string)
}

// New creates an Input. By default it has DefaultLength empty slots and
// auto focuses the first slot on Mount.
func New(opts ...Option) *Input {
	in := &Input{
		length:    0,
		autoFocus: true,
		focus:     NoFocus,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(in)
		}
	}

	if in.length == 0 {
		in.length = DefaultLength
		if len(in.restore) > 0 {
			in.length = len(in.restore)
		}
	}

	in.slots = in.slotsFromValue(in.value)
	for i := 0; i < len(in.restore) && i < in.length; i++ {
		in.slots[i] = firstDigit(in.restore[i])
	}
	in.restore = nil

	return in
}

// Length returns the number of slots.
func (in *Input) Length() int {
	return in.length
}

// Disabled reports whether the input rejects all events.
func (in *Input) Disabled() bool {
	return in.disabled
}

// Focus returns the slot that currently holds focus, or NoFocus.
func (in *Input) Focus() int {
	return in.focus
}

// Slots returns a copy of the slot sequence.
func (in *Input) Slots() []string {
	out := make([]string, len(in.slots))
	copy(out, in.slots)
	return out
}

// Slot returns the value of slot i, or "" when i is out of range.
func (in *Input) Slot(i int) string {
	if !in.inRange(i) {
		return ""
	}
	return in.slots[i]
}

// Value returns the code: non empty slots joined in order.
func (in *Input) Value() string {
	return strings.Join(in.slots, "")
}

// Complete reports whether every slot holds a digit.
func (in *Input) Complete() bool {
	for _, s := range in.slots {
		if s == "" {
			return false
		}
	}
	return true
}

// Mount applies the auto focus setting.
func (in *Input) Mount() Result {
	if !in.autoFocus || in.disabled {
		return noop()
	}
	return Result{Focus: in.moveFocus(0)}
}

// FocusAt records that slot i received focus through user interaction.
func (in *Input) FocusAt(i int) Result {
	if !in.accepts(i) {
		return noop()
	}
	return Result{Focus: in.moveFocus(i)}
}

// SetValue resynchronizes the slots with an externally controlled value.
// Characters beyond the length are ignored and missing positions are left
// empty. Nothing happens when the value did not change. The current focus is
// kept and OnChange is not called.
func (in *Input) SetValue(value string) {
	if value == in.value {
		return
	}
	in.value = value
	in.slots = in.slotsFromValue(value)
}

// Change handles raw input typed into slot i.
//
// Non digits are stripped. Input made only of non digits is ignored, while an
// empty raw value clears the slot. A single digit is stored and focus
// advances; several digits are spread forward from slot i.
func (in *Input) Change(i int, raw string) Result {
	if !in.accepts(i) {
		return noop()
	}

	digits := Digits(raw)
	if digits == "" && raw != "" {
		return noop()
	}

	in.focus = i

	if len(digits) > 1 {
		return in.fill(i, digits)
	}

	in.slots[i] = digits
	in.notify()

	res := Result{Changed: true, Focus: NoFocus}
	if digits != "" && i+1 < in.length {
		res.Focus = in.moveFocus(i + 1)
	}
	return res
}

// KeyDown handles a key pressed while slot i has focus.
func (in *Input) KeyDown(i int, key Key) Result {
	if !in.accepts(i) {
		return noop()
	}

	switch key {
	case KeyBackspace:
		// a non empty slot is cleared by the following Change(i, "")
		if in.slots[i] != "" || i == 0 {
			return noop()
		}
		in.slots[i-1] = ""
		in.notify()
		return Result{Changed: true, Focus: in.moveFocus(i - 1)}
	case KeyArrowLeft:
		res := Result{Focus: NoFocus, PreventDefault: true}
		if i > 0 {
			res.Focus = in.moveFocus(i - 1)
		}
		return res
	case KeyArrowRight:
		res := Result{Focus: NoFocus, PreventDefault: true}
		if i+1 < in.length {
			res.Focus = in.moveFocus(i + 1)
		}
		return res
	}

	return noop()
}

// Paste handles clipboard text pasted into slot i. When the text has no
// digits the paste is ignored and the default behavior applies.
func (in *Input) Paste(i int, text string) Result {
	if !in.accepts(i) {
		return noop()
	}

	digits := Digits(text)
	if room := in.length - i; len(digits) > room {
		digits = digits[:room]
	}
	if digits == "" {
		return noop()
	}

	res := in.fill(i, digits)
	res.PreventDefault = true
	return res
}

func (in *Input) fill(start int, digits string) Result {
	for k := 0; k < len(digits) && start+k < in.length; k++ {
		in.slots[start+k] = digits[k : k+1]
	}
	in.notify()

	last := min(in.length-1, start+len(digits)-1)
	next := last
	if last+1 < in.length {
		next = last + 1
	}

	return Result{Changed: true, Focus: in.moveFocus(next)}
}

func (in *Input) notify() {
	if in.onChange != nil {
		in.onChange(in.Value())
	}
}

func (in *Input) moveFocus(i int) int {
	in.focus = i
	return i
}

func (in *Input) accepts(i int) bool {
	return !in.disabled && in.inRange(i)
}

func (in *Input) inRange(i int) bool {
	return i >= 0 && i < in.length
}

func (in *Input) slotsFromValue(value string) []string {
	slots := make([]string, in.length)
	for i := 0; i < len(value) && i < in.length; i++ {
		slots[i] = firstDigit(value[i : i+1])
	}
	return slots
}

// Digits returns s with every character that is not 0-9 removed.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func firstDigit(s string) string {
	d := Digits(s)
	if d == "" {
		return ""
	}
	return d[:1]
}
