package codeinput

import "fmt"

// SlotView is the render data for one slot.
type SlotView struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	Label     string `json:"label"`
	AutoFocus bool   `json:"autofocus"`
	Focused   bool   `json:"focused"`
	Disabled  bool   `json:"disabled"`
}

// View is the render data for the whole input.
type View struct {
	Length    int        `json:"length"`
	Value     string     `json:"value"`
	Focus     int        `json:"focus"`
	Complete  bool       `json:"complete"`
	Disabled  bool       `json:"disabled"`
	InputMode string     `json:"inputmode"`
	Pattern   string     `json:"pattern"`
	MaxLength int        `json:"maxlength"`
	Slots     []SlotView `json:"slots"`
}

// SlotFieldName is the form field name used for every slot.
const SlotFieldName = "digits"

// View returns the render data for the current state.
func (in *Input) View() View {
	v := View{
		Length:    in.length,
		Value:     in.Value(),
		Focus:     in.focus,
		Complete:  in.Complete(),
		Disabled:  in.disabled,
		InputMode: "numeric",
		Pattern:   "[0-9]*",
		MaxLength: 1,
		Slots:     make([]SlotView, in.length),
	}

	for i, s := range in.slots {
		v.Slots[i] = SlotView{
			Index:     i,
			Name:      SlotFieldName,
			Value:     s,
			Label:     fmt.Sprintf("Digit %d", i+1),
			AutoFocus: in.autoFocus && !in.disabled && i == 0,
			Focused:   in.focus == i,
			Disabled:  in.disabled,
		}
	}

	return v
}
