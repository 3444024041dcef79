// Package tui holds the terminal record picker used by `record find`.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mincadmin/internal/app/client/typeahead"
	"mincadmin/internal/domain/record"
)

// Querier is the typeahead behind the picker. Begin is called from Update so
// tickets follow keystroke order; Run happens later in a command.
type Querier interface {
	Begin() typeahead.Ticket
	Run(ctx context.Context, ticket typeahead.Ticket, q string) ([]record.Summary, error)
}

type resultsMsg struct {
	ticket typeahead.Ticket
	q      string
	items  []record.Summary
	err    error
}

// Picker lets the admin type keywords and pick one matching record.
type Picker struct {
	ctx     context.Context
	search  Querier
	kind    record.Kind
	input   textinput.Model
	styles  Styles
	query   string
	ticket  typeahead.Ticket
	items   []record.Summary
	cursor  int
	loading bool
	err     error
	chosen  *record.Summary
	done    bool
}

func NewPicker(ctx context.Context, kind record.Kind, search Querier) Picker {
	in := textinput.New()
	in.Placeholder = fmt.Sprintf("Search %s by name, ID or email", strings.ToLower(kind.Title()))
	in.Prompt = "> "
	in.CharLimit = 120
	in.Focus()

	return Picker{
		ctx:    ctx,
		search: search,
		kind:   kind,
		input:  in,
		styles: DefaultStyles(),
	}
}

func (m Picker) Init() tea.Cmd {
	return textinput.Blink
}

func (m Picker) runQuery(ticket typeahead.Ticket, q string) tea.Cmd {
	ctx, search := m.ctx, m.search
	return func() tea.Msg {
		items, err := search.Run(ctx, ticket, q)
		return resultsMsg{ticket: ticket, q: q, items: items, err: err}
	}
}

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultsMsg:
		if msg.ticket != m.ticket || superseded(msg.err) {
			return m, nil
		}
		m.loading = false
		m.items, m.err = msg.items, msg.err
		m.cursor = 0
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.done = true
			return m, tea.Quit
		case tea.KeyEnter:
			if len(m.items) == 0 {
				return m, nil
			}
			chosen := m.items[m.cursor]
			m.chosen = &chosen
			m.done = true
			return m, tea.Quit
		case tea.KeyUp, tea.KeyCtrlP:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyDown, tea.KeyCtrlN:
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	q := m.input.Value()
	if q == m.query {
		return m, cmd
	}
	m.query = q
	m.err = nil
	m.ticket = m.search.Begin()
	if strings.TrimSpace(q) == "" {
		m.items, m.loading = nil, false
		return m, cmd
	}
	m.loading = true
	return m, tea.Batch(cmd, m.runQuery(m.ticket, q))
}

func superseded(err error) bool {
	return errors.Is(err, typeahead.ErrSuperseded) ||
		errors.Is(err, typeahead.ErrClosed) ||
		errors.Is(err, context.Canceled)
}

func (m Picker) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Find " + strings.ToLower(m.kind.Title())))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(m.err.Error()))
		b.WriteString("\n")
	case m.loading:
		b.WriteString(m.styles.Muted.Render("Searching..."))
		b.WriteString("\n")
	case strings.TrimSpace(m.query) != "" && len(m.items) == 0:
		b.WriteString(m.styles.Muted.Render("No matches."))
		b.WriteString("\n")
	}

	for i, it := range m.items {
		line := fmt.Sprintf("%-14s %s", it.ID, it.Title)
		if it.Subtitle != "" {
			line += m.styles.Muted.Render("  " + it.Subtitle)
		}
		if it.Status != "" {
			line += "  " + m.styles.Status.Render(it.Status)
		}
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("↑/↓ move • enter select • esc cancel"))
	return b.String()
}

// Chosen returns the picked record, if any.
func (m Picker) Chosen() (record.Summary, bool) {
	if m.chosen == nil {
		return record.Summary{}, false
	}
	return *m.chosen, true
}

// Run shows the picker on out until the admin picks a record or cancels.
func Run(ctx context.Context, kind record.Kind, search Querier, out io.Writer) (record.Summary, bool, error) {
	p := tea.NewProgram(NewPicker(ctx, kind, search), tea.WithContext(ctx), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return record.Summary{}, false, fmt.Errorf("picker: %w", err)
	}
	s, ok := final.(Picker).Chosen()
	return s, ok, nil
}
