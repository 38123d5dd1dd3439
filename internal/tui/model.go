// Package tui is an interactive terminal front end for the roster controller.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/quipper/poc/gradebook/internal/roster"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

var fieldLabels = map[roster.Field]string{
	roster.FieldName:     "Name",
	roster.FieldLastName: "Last name",
	roster.FieldSubject:  "Subject",
	roster.FieldGrade:    "Grade",
}

// tableFocus is the focus slot after the last input.
var tableFocus = len(roster.Fields)

// Model is the bubbletea model: four inputs over one table. All state
// changes go through the controller; the inputs only mirror its draft.
type Model struct {
	ctx    context.Context
	ctrl   *roster.Controller
	inputs []textinput.Model
	table  table.Model
	focus  int

	confirming bool
	pending    int

	errMsg string
	status string
	styles Styles
}

var _ tea.Model = Model{}

// New builds a model over ctrl. ctx bounds every store write.
func New(ctx context.Context, ctrl *roster.Controller) Model {
	inputs := make([]textinput.Model, len(roster.Fields))
	for i, f := range roster.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = fieldLabels[f]
		// No CharLimit: SetValue would cut longer stored values on edit.
		ti.CharLimit = 0
		ti.Width = 30
		inputs[i] = ti
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 14},
			{Title: "Last name", Width: 14},
			{Title: "Subject", Width: 14},
			{Title: "Grade", Width: 6},
			{Title: "Appreciation", Width: 18},
		}),
		table.WithHeight(10),
	)

	m := Model{
		ctx:    ctx,
		ctrl:   ctrl,
		inputs: inputs,
		table:  t,
		styles: DefaultStyles(),
	}
	m.inputs[0].Focus()
	m.syncInputs()
	m.refreshTable()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.confirming {
		return m.updateConfirm(key)
	}

	switch key.Type {
	case tea.KeyTab:
		return m, m.setFocus((m.focus + 1) % (tableFocus + 1))
	case tea.KeyShiftTab:
		return m, m.setFocus((m.focus + tableFocus) % (tableFocus + 1))
	case tea.KeyEsc:
		m.ctrl.Cancel()
		m.syncInputs()
		m.errMsg = ""
		m.status = "Edit cancelled"
		return m, nil
	case tea.KeyEnter:
		if m.focus != tableFocus {
			m.submit()
			return m, nil
		}
	}

	if m.focus == tableFocus {
		return m.updateTable(key)
	}
	return m.updateInput(key)
}

// updateInput lets the focused input apply the key, then offers the new
// value to the controller. A refused value is rolled back.
func (m Model) updateInput(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	in := &m.inputs[m.focus]
	before, pos := in.Value(), in.Position()

	var cmd tea.Cmd
	*in, cmd = in.Update(key)
	if in.Value() == before {
		return m, cmd
	}
	m.errMsg = ""
	if !m.ctrl.Change(roster.Fields[m.focus], in.Value()) {
		in.SetValue(before)
		in.SetCursor(pos)
	}
	return m, cmd
}

func (m Model) updateTable(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "e":
		if m.ctrl.Store().Len() == 0 {
			return m, nil
		}
		if err := m.ctrl.Edit(m.table.Cursor()); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.syncInputs()
		m.status = fmt.Sprintf("Editing row %d", m.table.Cursor()+1)
		return m, m.setFocus(0)
	case "d":
		if m.ctrl.Store().Len() == 0 {
			return m, nil
		}
		m.confirming = true
		m.pending = m.table.Cursor()
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(key)
	return m, cmd
}

// updateConfirm is modal: only y, n and Esc are handled.
func (m Model) updateConfirm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	var answer bool
	switch strings.ToLower(key.String()) {
	case "y":
		answer = true
	case "n", "esc":
	default:
		return m, nil
	}
	m.confirming = false

	deleted, err := m.ctrl.Delete(m.ctx, m.pending, roster.ConfirmFunc(func(string) bool { return answer }))
	if err != nil {
		logger.Error("tui delete: %v", err)
		m.errMsg = err.Error()
		return m, nil
	}
	if deleted {
		m.status = "Student deleted"
		m.syncInputs()
		m.refreshTable()
	} else {
		m.status = "Delete cancelled"
	}
	return m, nil
}

func (m *Model) submit() {
	st, err := m.ctrl.Submit(m.ctx)
	if err != nil {
		var verr *roster.ValidationError
		if errors.As(err, &verr) {
			m.errMsg = roster.InvalidDraftMessage
		} else {
			logger.Error("tui submit: %v", err)
			m.errMsg = err.Error()
		}
		m.status = ""
		return
	}
	m.errMsg = ""
	m.status = fmt.Sprintf("Saved %s %s", st.Name, st.LastName)
	m.syncInputs()
	m.refreshTable()
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == i {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	if i == tableFocus {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
	return cmd
}

// syncInputs copies the controller draft into the inputs.
func (m *Model) syncInputs() {
	d := m.ctrl.Draft()
	for i, f := range roster.Fields {
		m.inputs[i].SetValue(d.Value(f))
	}
}

func (m *Model) refreshTable() {
	v := m.ctrl.View()
	rows := make([]table.Row, 0, len(v.Rows))
	for _, r := range v.Rows {
		rows = append(rows, table.Row{r.Name, r.LastName, r.Subject, r.GradeText, string(r.Appreciation)})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// View renders the page.
func (m Model) View() string {
	var sb strings.Builder
	v := m.ctrl.View()

	sb.WriteString(m.styles.Title.Render("Gradebook") + "\n")
	sb.WriteString(m.styles.Stats.Render(fmt.Sprintf("Average: %s  Total: %d  Must take exam: %d  Exempted: %d",
		v.Average, v.Counts.Total, v.Counts.MustTakeExam, v.Counts.Exempted)) + "\n\n")

	for i, f := range roster.Fields {
		label := m.styles.Label
		if i == m.focus {
			label = m.styles.Focused
		}
		sb.WriteString(label.Render(fieldLabels[f]) + m.inputs[i].View() + "\n")
	}
	sb.WriteString("[" + m.ctrl.SubmitLabel() + "]\n")

	if m.errMsg != "" {
		sb.WriteString(m.styles.Error.Render(m.errMsg) + "\n")
	} else if m.status != "" {
		sb.WriteString(m.styles.Status.Render(m.status) + "\n")
	}
	sb.WriteString("\n")

	if v.Empty {
		sb.WriteString(m.styles.Muted.Render(roster.EmptyPlaceholder) + "\n")
	} else {
		sb.WriteString(m.styles.Table.Render(m.table.View()) + "\n")
	}

	if m.confirming {
		sb.WriteString(m.styles.Prompt.Render(roster.DeletePrompt+" (y/n)") + "\n")
	}
	sb.WriteString(m.styles.Muted.Render("[Tab] Next  [Enter] Save  [e] Edit  [d] Delete  [Esc] Cancel  [Ctrl+C] Quit"))
	return sb.String()
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, ctrl *roster.Controller, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, ctrl), opts...)
	_, err := p.Run()
	return errors.Wrap(err, "running terminal ui")
}
