package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/ffi-struct/codec"
	"github.com/wippyai/ffi-struct/structs"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateEdit
)

type editorModel struct {
	err      error
	ss       *session
	opts     options
	status   string
	fields   []structs.FieldValue
	input    textinput.Model
	selected int
	state    modelState
}

func newEditorModel(ss *session, opts options) *editorModel {
	m := &editorModel{ss: ss, opts: opts, state: stateBrowse}
	m.refresh()
	return m
}

func (m *editorModel) refresh() {
	fields, err := m.ss.s.Snapshot()
	if err != nil {
		m.err = err
		return
	}
	m.fields = fields
}

func (m *editorModel) Init() tea.Cmd {
	return nil
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.state == stateEdit {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.state == stateEdit {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.state = stateBrowse
			return m, nil
		case "enter":
			m.apply()
			m.state = stateBrowse
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.fields)-1 {
			m.selected++
		}

	case "enter", "e":
		if len(m.fields) == 0 {
			break
		}
		f := m.fields[m.selected]
		ti := textinput.New()
		ti.Prompt = f.Name + ": "
		ti.Placeholder = fieldTypeLabel(f.Type)
		ti.SetValue(formatValue(f.Value))
		ti.Width = 40
		ti.Focus()
		m.input = ti
		m.err = nil
		m.status = ""
		m.state = stateEdit

	case "w":
		if m.opts.outFile == "" {
			m.err = fmt.Errorf("no -out file given")
			break
		}
		if err := m.ss.save(m.opts.outFile); err != nil {
			m.err = err
			break
		}
		m.err = nil
		m.status = "saved " + m.opts.outFile
	}
	return m, nil
}

func (m *editorModel) apply() {
	f := m.fields[m.selected]
	if _, err := m.ss.s.Put(f.Name, parseValue(m.input.Value())); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = "updated " + f.Name
	m.refresh()
}

func (m *editorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Struct Editor"))
	b.WriteString(" ")
	b.WriteString(m.opts.layoutFile)
	if m.opts.dataFile != "" {
		b.WriteString(" @ ")
		b.WriteString(m.opts.dataFile)
	}
	b.WriteString("\n\n")

	for i, f := range m.fields {
		typ := fieldTypeLabel(f.Type)
		line := fmt.Sprintf("%-16s %-10s %s", f.Name, typ, formatValue(f.Value))
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + nameStyle.Render(fmt.Sprintf("%-16s", f.Name)) + " " +
				typeStyle.Render(fmt.Sprintf("%-10s", typ)) + " " + formatValue(f.Value))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.state == stateEdit {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ select • enter edit • w write • q quit"))
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	}
	return b.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case *structs.Struct:
		fields, err := val.Snapshot()
		if err != nil {
			return "<" + err.Error() + ">"
		}
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = f.Name + "=" + formatValue(f.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return fmt.Sprintf("%q", val)
	}
	return fmt.Sprint(v)
}

// fieldTypeLabel is shown for extension fields, whose native type says
// nothing about their contents.
func fieldTypeLabel(t codec.NativeType) string {
	if t == codec.Extension {
		return "ext"
	}
	return t.String()
}

func runInteractive(opts options) error {
	ss, err := open(opts.layoutFile, opts.dataFile)
	if err != nil {
		return err
	}
	p := tea.NewProgram(newEditorModel(ss, opts), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
