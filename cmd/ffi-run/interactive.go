package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/registry"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	reg      *registry.Registry
	names    []string
	input    textinput.Model
	result   string
	selected int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(reg *registry.Registry) *interactiveModel {
	return &interactiveModel{
		reg:   reg,
		names: reg.Names(),
		state: stateSelectFunc,
	}
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			// During argument entry "q" is just a character.
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.names)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.names) == 0 {
					return m, nil
				}
				m.prepareInput()
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Placeholder = "comma-separated literals"
	ti.Prompt = "args: "
	ti.Width = 40
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) callFunction() tea.Msg {
	name := m.names[m.selected]
	fn, ok := m.reg.Get(name)
	if !ok {
		return callResultMsg{err: fmt.Errorf("function %q not registered", name)}
	}

	args, err := parseArgs(m.input.Value())
	if err != nil {
		return callResultMsg{err: err}
	}

	var ret ffiruntime.RetValue
	callErr := errors.Catch(func() {
		ret = fn.Call(context.Background(), args...)
	})
	if callErr != nil {
		return callResultMsg{err: callErr}
	}

	result := ret.String()
	ret.Clear()
	return callResultMsg{result: result}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.names) == 0 {
		return "No functions registered.\n\nPress q to quit."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("FFI Runner"))
	b.WriteString(fmt.Sprintf(" %d functions", len(m.names)))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, name := range m.names {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + name))
			} else {
				b.WriteString(cursor + funcStyle.Render(name))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		name := m.names[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(name)))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(typeStyle.Render(`literals: 42, 2.5, "text", true, null, dtype:float32x4`))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter call • esc back"))

	case stateShowResult:
		name := m.names[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(reg *registry.Registry) error {
	p := tea.NewProgram(newInteractiveModel(reg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
