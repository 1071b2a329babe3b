// Package ui is the Bubble Tea interactive mode: a command editor, a
// scrollback of command output, and a result table for selects, all over the
// same parser and executor the line REPL uses.
package ui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"tinytable/pkg/executor"
	"tinytable/pkg/parser"
	"tinytable/pkg/storage/row"
	"tinytable/pkg/storage/table"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model represents the interactive session state.
type Model struct {
	table       *table.Table
	commandLine textinput.Model
	scrollback  viewport.Model
	resultTable btable.Model
	help        help.Model
	keys        keyMap

	width      int
	height     int
	showHelp   bool
	showTable  bool
	lastError  string
	history    []string
	transcript []string
}

// NewModel builds the interactive session over an open table.
func NewModel(t *table.Table) Model {
	ti := textinput.New()
	ti.Placeholder = "insert <id> <username> <email> | select | .btree | .exit"
	ti.CharLimit = 512
	ti.Prompt = "> "
	ti.Focus()

	vp := viewport.New(80, 12)
	vp.Style = scrollbackStyle

	rt := btable.New(
		btable.WithColumns(resultColumns(80)),
		btable.WithRows([]btable.Row{}),
		btable.WithFocused(false),
		btable.WithHeight(8),
	)
	s := btable.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	rt.SetStyles(s)

	return Model{
		table:       t,
		commandLine: ti,
		scrollback:  vp,
		resultTable: rt,
		help:        help.New(),
		keys:        keys,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			// Closing the table is the durability point; do it before the
			// program tears the terminal down.
			m.table.Close()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Execute):
			line := strings.TrimSpace(m.commandLine.Value())
			if line != "" {
				m.commandLine.SetValue("")
				return m.runCommand(line)
			}

		case key.Matches(msg, m.keys.Clear):
			m.commandLine.SetValue("")
			m.lastError = ""

		case key.Matches(msg, m.keys.ShowTree):
			return m.runCommand(".btree")

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		}
	}

	var cmd tea.Cmd
	m.commandLine, cmd = m.commandLine.Update(msg)
	cmds = append(cmds, cmd)

	m.scrollback, cmd = m.scrollback.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, editorStyle.Render(m.commandLine.View()))

	if m.lastError != "" {
		sections = append(sections, errorStyle.Render(m.lastError))
	}
	if m.showTable {
		sections = append(sections, m.resultTable.View())
	}

	sections = append(sections, m.scrollback.View())
	sections = append(sections, m.renderStatusBar())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return appStyle.Render(strings.Join(sections, "\n"))
}

// runCommand executes one command line synchronously. The command and its
// outcome messages go to the transcript; select rows go to the result table
// instead of the transcript.
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	m.lastError = ""
	m.history = append(m.history, line)
	m.appendTranscript("> " + line)

	if strings.HasPrefix(line, ".") {
		return m.runMetaCommand(line)
	}

	stmt, prepareResult := parser.Prepare(line)
	if prepareResult != parser.PrepareSuccess {
		m.lastError = prepareResult.Message(line)
		m.appendTranscript(m.lastError)
		return m, nil
	}

	switch stmt.Kind {
	case parser.StatementSelect:
		var rows []btable.Row
		result, err := executor.Execute(stmt, m.table, func(r *row.Row) {
			rows = append(rows, btable.Row{
				strconv.FormatInt(r.ID, 10),
				r.UsernameString(),
				r.EmailString(),
			})
		})
		if err != nil {
			m.lastError = err.Error()
			return m, nil
		}
		if result == executor.Success {
			m.resultTable.SetRows(rows)
			m.showTable = true
			m.appendTranscript(fmt.Sprintf("Returned %d rows.", m.table.NumRows()))
		}

	default:
		result, err := executor.Execute(stmt, m.table, nil)
		if err != nil {
			m.lastError = err.Error()
			return m, nil
		}
		switch result {
		case executor.TableFull:
			m.appendTranscript("[ERROR] Table is full, cannot insert the row")
		case executor.Success:
			if stmt.Kind == parser.StatementInsert {
				m.appendTranscript("Row inserted successfully.")
			}
		}
	}

	return m, nil
}

func (m Model) runMetaCommand(line string) (tea.Model, tea.Cmd) {
	switch line {
	case ".exit":
		m.table.Close()
		return m, tea.Quit
	case ".btree":
		var buf bytes.Buffer
		if err := executor.DumpTree(m.table, &buf, false); err != nil {
			m.lastError = err.Error()
			return m, nil
		}
		for _, l := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
			m.appendTranscript(l)
		}
	default:
		m.appendTranscript("Unrecognized command: " + line)
	}
	return m, nil
}

func (m *Model) appendTranscript(line string) {
	m.transcript = append(m.transcript, line)
	m.scrollback.SetContent(strings.Join(m.transcript, "\n"))
	m.scrollback.GotoBottom()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("tinytable")
	path := lipgloss.NewStyle().Foreground(textMuted).Render(m.table.Path())
	return lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", path)
}

func (m Model) renderStatusBar() string {
	status := fmt.Sprintf("● %d rows | ctrl+h for help", m.table.NumRows())
	return statusBarStyle.Render(status)
}

func (m Model) renderHelp() string {
	helpText := m.help.FullHelpView([][]key.Binding{
		{
			m.keys.Execute,
			m.keys.Clear,
			m.keys.ShowTree,
			m.keys.Help,
			m.keys.Quit,
		},
	})
	return helpBoxStyle.Render(helpText)
}

func (m *Model) updateLayout() {
	contentWidth := m.width - 6
	if contentWidth < 20 {
		contentWidth = 20
	}

	m.commandLine.Width = contentWidth
	m.scrollback.Width = contentWidth

	scrollbackHeight := m.height - 14
	if m.showTable {
		scrollbackHeight -= m.resultTable.Height()
	}
	if scrollbackHeight < 3 {
		scrollbackHeight = 3
	}
	m.scrollback.Height = scrollbackHeight

	m.resultTable.SetColumns(resultColumns(contentWidth))
}

func resultColumns(width int) []btable.Column {
	idWidth := 10
	rest := (width - idWidth) / 2
	if rest < 10 {
		rest = 10
	}
	return []btable.Column{
		{Title: "ID", Width: idWidth},
		{Title: "Username", Width: rest},
		{Title: "Email", Width: rest},
	}
}
