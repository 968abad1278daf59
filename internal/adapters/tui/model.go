// Package tui is an interactive terminal browser over the dashboard views.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ewilliams-labs/decades/internal/adapters/term"
	"github.com/ewilliams-labs/decades/internal/core/presenter"
	"github.com/ewilliams-labs/decades/internal/core/services"
)

// Source is the part of the dashboard the browser reads from.
type Source interface {
	Views(ctx context.Context) ([]services.ViewRef, error)
	View(ctx context.Context, id, artist string) (presenter.Page, error)
}

const listWidth = 28

type mode int

const (
	modeViews mode = iota
	modeArtists
)

// viewItem adapts services.ViewRef to list.Item
type viewItem struct{ ref services.ViewRef }

func (i viewItem) Title() string       { return i.ref.Title }
func (i viewItem) Description() string { return i.ref.ID }
func (i viewItem) FilterValue() string { return i.ref.ID + " " + i.ref.Title }

// artistItem is one ranked artist of the open decade.
type artistItem struct {
	name     string
	selected bool
}

func (i artistItem) Title() string { return i.name }
func (i artistItem) Description() string {
	if i.selected {
		return "showing"
	}
	return ""
}
func (i artistItem) FilterValue() string { return i.name }

type viewsMsg struct{ views []services.ViewRef }

type pageMsg struct {
	page    presenter.Page
	content string
}

type errMsg struct{ err error }

// Model is the bubbletea model of the browser.
type Model struct {
	ctx      context.Context
	src      Source
	renderer *term.Renderer

	list     list.Model
	viewport viewport.Model
	mode     mode
	views    []services.ViewRef

	// focusPage routes keys to the viewport instead of the list.
	focusPage bool

	page    presenter.Page
	loading bool
	err     error

	width, height int
	status        lipgloss.Style
	errStyle      lipgloss.Style
}

// New returns a browser over src drawing pages with r.
func New(ctx context.Context, src Source, r *term.Renderer) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Views"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	vp := viewport.New(0, 0)
	vp.SetContent("Select a view and press enter.")

	return Model{
		ctx:      ctx,
		src:      src,
		renderer: r,
		list:     l,
		viewport: vp,
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		errStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true),
	}
}

// Init loads the view list.
func (m Model) Init() tea.Cmd {
	return m.loadViews
}

func (m Model) loadViews() tea.Msg {
	views, err := m.src.Views(m.ctx)
	if err != nil {
		return errMsg{err}
	}
	return viewsMsg{views}
}

func (m Model) loadPage(id, artist string) tea.Cmd {
	return func() tea.Msg {
		page, err := m.src.View(m.ctx, id, artist)
		if err != nil {
			return errMsg{err}
		}
		content, err := m.renderer.Render(page)
		if err != nil {
			return errMsg{err}
		}
		return pageMsg{page: page, content: content}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)

	case viewsMsg:
		m.views = msg.views
		m.showViews()
		return m, nil

	case pageMsg:
		m.loading = false
		m.err = nil
		m.page = msg.page
		m.viewport.SetContent(msg.content)
		m.viewport.GotoTop()
		if m.mode == modeArtists {
			m.showArtists()
		}
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focusPage = !m.focusPage
				return m, nil
			case "esc":
				if m.mode == modeArtists {
					m.showViews()
					return m, nil
				}
			case "a":
				if len(m.page.Artists) > 0 {
					m.mode = modeArtists
					m.showArtists()
					return m, nil
				}
			case "enter":
				if m.focusPage {
					break
				}
				return m.choose()
			}
		}
	}

	_, isKey := msg.(tea.KeyMsg)
	if !isKey || !m.focusPage || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	if !isKey || m.focusPage {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// choose loads whatever the list cursor points at.
func (m Model) choose() (tea.Model, tea.Cmd) {
	switch item := m.list.SelectedItem().(type) {
	case viewItem:
		m.loading = true
		return m, m.loadPage(item.ref.ID, "")
	case artistItem:
		m.loading = true
		return m, m.loadPage(m.page.ID, item.name)
	}
	return m, nil
}

func (m *Model) showViews() {
	m.mode = modeViews
	items := make([]list.Item, len(m.views))
	for i, v := range m.views {
		items[i] = viewItem{v}
	}
	m.list.Title = "Views"
	m.list.ResetFilter()
	m.list.SetItems(items)
}

func (m *Model) showArtists() {
	items := make([]list.Item, len(m.page.Artists))
	for i, a := range m.page.Artists {
		items[i] = artistItem{name: a, selected: a == m.page.Selected}
	}
	m.list.Title = "Artists " + m.page.ID
	m.list.ResetFilter()
	m.list.SetItems(items)
}

func (m *Model) setSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(listWidth, h-1)
	m.viewport.Width = max(w-listWidth-2, 0)
	m.viewport.Height = max(h-1, 0)
}

// View renders the model.
func (m Model) View() string {
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Render(m.list.View()),
		"  ",
		m.viewport.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return m.errStyle.Render("error: " + m.err.Error())
	case m.loading:
		return m.status.Render("loading…")
	}
	hint := "enter open · tab focus · q quit"
	if len(m.page.Artists) > 0 {
		hint = "a artists · esc views · " + hint
	}
	if m.page.ID != "" {
		hint = fmt.Sprintf("%s · %s", m.page.Title, hint)
	}
	return m.status.Render(hint)
}

// Run starts the browser on the terminal and blocks until the user quits.
func Run(ctx context.Context, src Source, r *term.Renderer) error {
	p := tea.NewProgram(New(ctx, src, r), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
