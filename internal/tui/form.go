package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")).Width(22)
	focusedLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true).Width(22)
	choiceStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	focusedChoice     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	hintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
)

// fieldSpec describes one form row. Rows with choices are selects cycled with
// left/right; the rest are free text.
type fieldSpec struct {
	key         string
	label       string
	placeholder string
	choices     []string
}

type formField struct {
	fieldSpec
	input  textinput.Model
	choice int
}

// form is a vertical list of inputs with a single focused row.
type form struct {
	title  string
	fields []formField
	focus  int
}

func newForm(title string, specs []fieldSpec, values map[string]string) *form {
	f := &form{title: title}
	for _, spec := range specs {
		field := formField{fieldSpec: spec}
		if len(spec.choices) > 0 {
			for i, choice := range spec.choices {
				if choice == values[spec.key] {
					field.choice = i
				}
			}
		} else {
			ti := textinput.New()
			ti.Prompt = ""
			ti.Placeholder = spec.placeholder
			ti.CharLimit = 120
			ti.Width = 40
			ti.SetValue(values[spec.key])
			field.input = ti
		}
		f.fields = append(f.fields, field)
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	if i < 0 {
		i = len(f.fields) - 1
	}
	if i >= len(f.fields) {
		i = 0
	}
	for idx := range f.fields {
		if len(f.fields[idx].choices) > 0 {
			continue
		}
		if idx == i {
			f.fields[idx].input.Focus()
		} else {
			f.fields[idx].input.Blur()
		}
	}
	f.focus = i
}

func (f *form) next() { f.setFocus(f.focus + 1) }
func (f *form) prev() { f.setFocus(f.focus - 1) }

func (f *form) onLast() bool { return f.focus == len(f.fields)-1 }

// Update moves focus, cycles selects, and forwards everything else to the
// focused text input.
func (f *form) Update(msg tea.Msg) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	field := &f.fields[f.focus]
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.next()
			return nil
		case "shift+tab", "up":
			f.prev()
			return nil
		case "left", "right":
			if n := len(field.choices); n > 0 {
				step := 1
				if key.String() == "left" {
					step = n - 1
				}
				field.choice = (field.choice + step) % n
				return nil
			}
		}
	}
	if len(field.choices) > 0 {
		return nil
	}
	var cmd tea.Cmd
	field.input, cmd = field.input.Update(msg)
	return cmd
}

// Values returns the trimmed value of every row keyed by field key.
func (f *form) Values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		if len(field.choices) > 0 {
			out[field.key] = field.choices[field.choice]
			continue
		}
		out[field.key] = strings.TrimSpace(field.input.Value())
	}
	return out
}

// SetValue replaces a row's value. Unknown keys and values outside a select's
// choices are ignored.
func (f *form) SetValue(key, value string) {
	for i := range f.fields {
		field := &f.fields[i]
		if field.key != key {
			continue
		}
		if len(field.choices) == 0 {
			field.input.SetValue(value)
			return
		}
		for idx, choice := range field.choices {
			if choice == value {
				field.choice = idx
			}
		}
		return
	}
}

func (f *form) View() string {
	var rows []string
	if f.title != "" {
		rows = append(rows, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).Render(f.title), "")
	}
	for i, field := range f.fields {
		label := fieldLabelStyle.Render(field.label)
		if i == f.focus {
			label = focusedLabelStyle.Render(field.label)
		}
		var value string
		if len(field.choices) > 0 {
			var opts []string
			for idx, choice := range field.choices {
				switch {
				case idx == field.choice && i == f.focus:
					opts = append(opts, focusedChoice.Render(fmt.Sprintf("[%s]", choice)))
				case idx == field.choice:
					opts = append(opts, choiceStyle.Bold(true).Render(fmt.Sprintf("[%s]", choice)))
				default:
					opts = append(opts, choiceStyle.Render(choice))
				}
			}
			value = strings.Join(opts, " ")
		} else {
			value = field.input.View()
		}
		rows = append(rows, label+value)
	}
	return strings.Join(rows, "\n")
}
