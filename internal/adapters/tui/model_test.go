package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/decades/internal/adapters/term"
	"github.com/ewilliams-labs/decades/internal/core/presenter"
	"github.com/ewilliams-labs/decades/internal/core/services"
)

type fakeSource struct {
	viewsErr error
	calls    []string
}

func (f *fakeSource) Views(ctx context.Context) ([]services.ViewRef, error) {
	if f.viewsErr != nil {
		return nil, f.viewsErr
	}
	return []services.ViewRef{
		{ID: "overview", Title: "Overall Information"},
		{ID: "1950s", Title: "1950s"},
	}, nil
}

func (f *fakeSource) View(ctx context.Context, id, artist string) (presenter.Page, error) {
	f.calls = append(f.calls, id+"|"+artist)
	if id != "1950s" {
		return presenter.Page{ID: id, Title: "Overall Information"}, nil
	}
	if artist == "" {
		artist = "Elvis Presley"
	}
	return presenter.Page{
		ID:       "1950s",
		Title:    "Review of 1950s songs",
		Artists:  []string{"Elvis Presley", "Ray Charles"},
		Selected: artist,
	}, nil
}

func newModel(t *testing.T, src Source) Model {
	t.Helper()
	r, err := term.New(presenter.DefaultTheme(), 80)
	require.NoError(t, err)
	m := New(context.Background(), src, r)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

// step feeds msg to m and runs the returned command once, feeding its
// message back in.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	out := cmd()
	switch out.(type) {
	case pageMsg, errMsg, viewsMsg:
		next, _ = m.Update(out)
		m = next.(Model)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_BrowseDecadeAndArtist(t *testing.T) {
	src := &fakeSource{}
	m := newModel(t, src)
	m = step(t, m, m.loadViews())

	require.Len(t, m.list.Items(), 2)

	// Open the 1950s.
	m = step(t, m, key("down"))
	m = step(t, m, key("enter"))
	assert.Equal(t, "1950s", m.page.ID)
	assert.Contains(t, m.viewport.View(), "Review of 1950s songs")

	// Switch to the artist list and pick the second artist.
	m = step(t, m, key("a"))
	assert.Equal(t, modeArtists, m.mode)
	require.Len(t, m.list.Items(), 2)
	m = step(t, m, key("down"))
	m = step(t, m, key("enter"))
	assert.Equal(t, "Ray Charles", m.page.Selected)
	assert.Equal(t, []string{"1950s|", "1950s|Ray Charles"}, src.calls)

	item := m.list.Items()[1].(artistItem)
	assert.True(t, item.selected)

	// Back to views.
	m = step(t, m, key("esc"))
	assert.Equal(t, modeViews, m.mode)
	assert.Len(t, m.list.Items(), 2)
}

func TestModel_TabFocusesPage(t *testing.T) {
	src := &fakeSource{}
	m := newModel(t, src)
	m = step(t, m, m.loadViews())

	m = step(t, m, key("tab"))
	assert.True(t, m.focusPage)
	m = step(t, m, key("enter"))
	assert.Empty(t, src.calls, "enter must not open a view while the page has focus")
}

func TestModel_ErrorShownInStatus(t *testing.T) {
	m := newModel(t, &fakeSource{viewsErr: errors.New("no shards")})
	m = step(t, m, m.loadViews())

	require.Error(t, m.err)
	assert.True(t, strings.Contains(m.View(), "error: no shards"))
}

func TestModel_Quit(t *testing.T) {
	m := newModel(t, &fakeSource{})
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
