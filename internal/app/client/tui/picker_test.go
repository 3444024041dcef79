package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mincadmin/internal/app/client/typeahead"
	"mincadmin/internal/domain/record"
)

type fakeQuerier struct {
	seq   typeahead.Ticket
	calls []string
	items []record.Summary
	err   error
}

func (f *fakeQuerier) Begin() typeahead.Ticket {
	f.seq++
	return f.seq
}

func (f *fakeQuerier) Run(_ context.Context, _ typeahead.Ticket, q string) ([]record.Summary, error) {
	f.calls = append(f.calls, q)
	return f.items, f.err
}

var twoResults = []record.Summary{
	{Kind: record.KindInstitution, ID: "VG25001055", Title: "Lone Star Logistics", Subtitle: "Austin", Status: "pending"},
	{Kind: record.KindInstitution, ID: "VG25001060", Title: "Riverside High School", Subtitle: "Sacramento", Status: "active"},
}

func typeText(m Picker, s string) Picker {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Picker)
	}
	return m
}

func update(m Picker, msg tea.Msg) Picker {
	next, _ := m.Update(msg)
	return next.(Picker)
}

// results answers the picker's current query.
func results(m Picker, items []record.Summary, err error) resultsMsg {
	return resultsMsg{ticket: m.ticket, q: m.query, items: items, err: err}
}

func TestPicker_TypingStartsQuery(t *testing.T) {
	q := &fakeQuerier{items: twoResults}
	m := NewPicker(context.Background(), record.KindInstitution, q)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m = next.(Picker)
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Equal(t, "a", m.query)
	assert.Contains(t, m.View(), "Searching...")

	msg := m.runQuery(m.ticket, "a")()
	res, ok := msg.(resultsMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, q.calls)

	m = update(m, res)
	assert.False(t, m.loading)
	assert.Len(t, m.items, 2)
	view := m.View()
	assert.Contains(t, view, "VG25001055")
	assert.Contains(t, view, "Riverside High School")
}

func TestPicker_StaleResultsIgnored(t *testing.T) {
	m := NewPicker(context.Background(), record.KindInstitution, &fakeQuerier{})
	m = typeText(m, "aus")

	m = update(m, resultsMsg{ticket: m.ticket - 1, q: "au", items: twoResults})
	assert.Empty(t, m.items)
	assert.True(t, m.loading)

	m = update(m, results(m, nil, typeahead.ErrSuperseded))
	assert.Nil(t, m.err)
	assert.True(t, m.loading)

	m = update(m, results(m, twoResults[:1], nil))
	assert.Len(t, m.items, 1)
	assert.False(t, m.loading)
}

func TestPicker_OutOfOrderCommands(t *testing.T) {
	search := typeahead.New(func(_ context.Context, q string) ([]record.Summary, error) {
		if q == "ab" {
			return twoResults[:1], nil
		}
		return twoResults, nil
	}, typeahead.WithDebounce(0))
	defer search.Close()

	m := NewPicker(context.Background(), record.KindInstitution, search)
	m = typeText(m, "a")
	cmdA := m.runQuery(m.ticket, "a")
	m = typeText(m, "b")
	cmdAB := m.runQuery(m.ticket, "ab")

	// The command for the newer keystroke finishes first.
	m = update(m, cmdAB())
	m = update(m, cmdA())

	assert.False(t, m.loading)
	assert.Nil(t, m.err)
	require.Len(t, m.items, 1)
	assert.Equal(t, "VG25001055", m.items[0].ID)
}

func TestPicker_BlankQueryClears(t *testing.T) {
	m := NewPicker(context.Background(), record.KindInstitution, &fakeQuerier{})
	m = typeText(m, "a")
	m = update(m, results(m, twoResults, nil))
	require.Len(t, m.items, 2)

	m = update(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Empty(t, m.items)
	assert.False(t, m.loading)
	assert.Equal(t, "", m.query)
}

func TestPicker_ErrorShown(t *testing.T) {
	m := NewPicker(context.Background(), record.KindUser, &fakeQuerier{})
	m = typeText(m, "sam")
	m = update(m, results(m, nil, errors.New("server error (500)")))
	assert.Contains(t, m.View(), "server error (500)")

	m = update(m, results(m, nil, nil))
	assert.Contains(t, m.View(), "No matches.")
}

func TestPicker_Navigation(t *testing.T) {
	m := NewPicker(context.Background(), record.KindInstitution, &fakeQuerier{})
	m = typeText(m, "r")
	m = update(m, results(m, twoResults, nil))

	m = update(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Picker)
	require.NotNil(t, cmd)
	got, ok := m.Chosen()
	require.True(t, ok)
	assert.Equal(t, "VG25001060", got.ID)
	assert.Empty(t, m.View())
}

func TestPicker_EnterWithoutResults(t *testing.T) {
	m := NewPicker(context.Background(), record.KindInstitution, &fakeQuerier{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	_, ok := next.(Picker).Chosen()
	assert.False(t, ok)
}

func TestPicker_Cancel(t *testing.T) {
	m := NewPicker(context.Background(), record.KindInstitution, &fakeQuerier{})
	m = typeText(m, "r")
	m = update(m, results(m, twoResults, nil))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	_, ok := next.(Picker).Chosen()
	assert.False(t, ok)
	assert.True(t, strings.TrimSpace(next.View()) == "")
}
