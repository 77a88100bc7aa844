package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

const (
	toastDuration      = 4 * time.Second
	visibleSuggestions = 5
	chromeHeight       = 14
)

// Controller is the subset of the session driven by the TUI.
type Controller interface {
	SearchDebounced(query string)
	CancelSearch()
	SelectSeed(ctx context.Context, idx int) error
	PlayPauseToggle(ctx context.Context) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	SetEnabledSources(sources ...models.Source)
	EnabledSources() []models.Source
}

// ThemeStore persists the theme preference.
type ThemeStore interface {
	Theme() (models.Theme, error)
	SetTheme(models.Theme) error
}

// Focus names the component receiving key presses.
type Focus int

const (
	SearchFocus Focus = iota
	ResultsFocus
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	ctrl        Controller
	events      <-chan models.Event
	themes      ThemeStore
	theme       models.Theme
	styles      *Palette
	focus       Focus
	width       int
	height      int
	input       textinput.Model
	lastQuery   string
	suggestions []models.Track
	results     list.Model
	query       string
	nowPlaying  *models.Track
	state       models.PlaybackState
	toast       string
	toastID     int
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model reading session events from events.
//
// themes may be nil, in which case the theme follows the terminal background and is not saved.
func NewModel(ctx context.Context, ctrl Controller, events <-chan models.Event, themes ThemeStore) *Model {
	input := textinput.New()
	input.Placeholder = "Search for a song or artist"
	input.Prompt = "♪ "
	input.CharLimit = 120
	input.Focus()

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Results"
	results.SetShowHelp(false)
	results.SetFilteringEnabled(false)
	results.KeyMap.Quit.SetEnabled(false)

	theme := loadTheme(themes)
	return &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		events:  events,
		themes:  themes,
		theme:   theme,
		styles:  paletteFor(theme),
		focus:   SearchFocus,
		input:   input,
		results: results,
		state:   models.PlaybackState{Position: -1},
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// loadTheme reads the saved theme, falling back to the terminal background when none was saved.
func loadTheme(themes ThemeStore) models.Theme {
	if themes != nil {
		theme, err := themes.Theme()
		if err == nil {
			return theme
		}
		if !errors.Is(err, shared.ErrPreferenceNotFound) {
			return models.ThemeDark
		}
	}
	if lipgloss.HasDarkBackground() {
		return models.ThemeDark
	}
	return models.ThemeLight
}

// Init starts listening for session events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		m.results.SetSize(max(msg.Width-4, 10), max(msg.Height-chromeHeight, 4))
		return m, nil

	case tea.KeyMsg:
		if m.focus == SearchFocus {
			return m.handleSearchKeys(msg)
		}
		return m.handleResultKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionEvent:
		cmd := m.applyEvent(msg.data.(models.Event))
		return m, tea.Batch(cmd, m.waitForEvent())

	case MsgEventsClosed:
		m.events = nil
		return m, nil

	case MsgActionDone:
		done := msg.data.(struct {
			action string
			err    error
		})
		m.err = nil
		if done.err != nil {
			m.err = fmt.Errorf("%s: %w", done.action, done.err)
		}
		return m, nil

	case MsgToastExpired:
		if msg.data.(int) == m.toastID {
			m.toast = ""
		}
		return m, nil

	case MsgThemeSaved:
		saved := msg.data.(struct {
			theme models.Theme
			err   error
		})
		if saved.err != nil {
			m.err = fmt.Errorf("save theme: %w", saved.err)
		}
		return m, nil
	}
	return m, nil
}

// applyEvent folds a session event into the model.
func (m *Model) applyEvent(ev models.Event) tea.Cmd {
	switch ev.Kind {
	case models.SuggestionsUpdated:
		m.suggestions = ev.Tracks
	case models.ResultsUpdated:
		m.query = ev.Query
		idx := m.results.Index()
		cmd := m.results.SetItems(trackItems(ev.Tracks, ev.NewIDs))
		if len(ev.NewIDs) > 0 {
			m.results.Select(idx + len(ev.NewIDs))
		} else {
			m.results.Select(0)
		}
		return cmd
	case models.NowPlayingChanged:
		m.nowPlaying = ev.Track
	case models.PlaybackStateChanged:
		m.state = ev.State
	case models.NewTrackToast:
		if ev.Track != nil {
			return m.showToast(fmt.Sprintf("New for %q: %s", ev.Query, trackLabel(*ev.Track)))
		}
	case models.OpenedExternally:
		if ev.Track != nil {
			return m.showToast("Opened externally: " + trackLabel(*ev.Track))
		}
	}
	return nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m.quit()
	case key.Matches(msg, m.keys.back), msg.String() == "tab", msg.String() == "enter":
		m.setFocus(ResultsFocus)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.lastQuery {
		m.lastQuery = q
		m.ctrl.SearchDebounced(q)
	}
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.focus):
		m.setFocus(SearchFocus)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.back):
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if len(m.results.Items()) == 0 {
			return m, nil
		}
		idx := m.results.Index()
		return m, m.run("play", func(ctx context.Context) error { return m.ctrl.SelectSeed(ctx, idx) })
	case key.Matches(msg, m.keys.toggle):
		return m, m.run("play/pause", m.ctrl.PlayPauseToggle)
	case key.Matches(msg, m.keys.next):
		return m, m.run("next", m.ctrl.Next)
	case key.Matches(msg, m.keys.prev):
		return m, m.run("prev", m.ctrl.Prev)
	case key.Matches(msg, m.keys.itunes):
		m.toggleSource(models.SourceITunes)
		return m, nil
	case key.Matches(msg, m.keys.jiosaavn):
		m.toggleSource(models.SourceJioSaavn)
		return m, nil
	case key.Matches(msg, m.keys.theme):
		return m, m.toggleTheme()
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

// quit drops a pending debounced search before exiting.
func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.ctrl.CancelSearch()
	return m, tea.Quit
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case SearchFocus:
		m.input, cmd = m.input.Update(msg)
	case ResultsFocus:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	if f == SearchFocus {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// toggleSource flips src in the enabled set. The last enabled source cannot be switched off.
func (m *Model) toggleSource(src models.Source) {
	enabled := m.ctrl.EnabledSources()
	next := make([]models.Source, 0, len(enabled)+1)
	found := false
	for _, s := range enabled {
		if s == src {
			found = true
			continue
		}
		next = append(next, s)
	}
	if !found {
		next = append(next, src)
	}
	if len(next) == 0 {
		return
	}

	m.ctrl.SetEnabledSources(next...)
	if q := m.input.Value(); strings.TrimSpace(q) != "" {
		m.ctrl.SearchDebounced(q)
	}
}

func (m *Model) toggleTheme() tea.Cmd {
	m.theme = m.theme.Toggle()
	m.styles = paletteFor(m.theme)
	if m.themes == nil {
		return nil
	}

	theme, store := m.theme, m.themes
	return func() tea.Msg {
		return themeSavedMsg(theme, store.SetTheme(theme))
	}
}

func (m *Model) showToast(text string) tea.Cmd {
	m.toastID++
	m.toast = text
	id := m.toastID
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg(id) })
}

// run executes a session action off the update loop.
func (m *Model) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg(action, fn(ctx))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg()
		}
		return sessionEventMsg(ev)
	}
}

// View renders the search box, results, now-playing panel and help.
func (m *Model) View() string {
	sections := []string{
		m.styles.title.Render("VibePlayer") + "  " + m.renderSources(),
		m.input.View(),
	}
	if s := m.renderSuggestions(); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, m.results.View(), m.renderNowPlaying())

	if m.toast != "" {
		sections = append(sections, m.styles.ok.Render(m.toast))
	}
	if m.err != nil {
		sections = append(sections, m.styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	sections = append(sections, m.help.View(m.keys))

	return strings.Join(sections, "\n")
}

func (m *Model) renderSources() string {
	enabled := map[models.Source]bool{}
	for _, s := range m.ctrl.EnabledSources() {
		enabled[s] = true
	}

	parts := make([]string, 0, len(models.Sources)+1)
	for _, s := range models.Sources {
		if enabled[s] {
			parts = append(parts, m.styles.active.Render("["+s.Label()+"]"))
		} else {
			parts = append(parts, m.styles.help.Render(" "+s.Label()+" "))
		}
	}
	parts = append(parts, m.styles.help.Render("theme: "+m.theme.String()))
	return strings.Join(parts, " ")
}

func (m *Model) renderSuggestions() string {
	if m.focus != SearchFocus || strings.TrimSpace(m.input.Value()) == "" || len(m.suggestions) == 0 {
		return ""
	}

	n := min(len(m.suggestions), visibleSuggestions)
	lines := make([]string, n)
	for i := range n {
		lines[i] = m.styles.help.Render("  " + trackLabel(m.suggestions[i]))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderNowPlaying() string {
	if m.nowPlaying == nil {
		return m.styles.panel.Render(m.styles.help.Render("Nothing playing. Pick a result and press enter."))
	}

	icon := "■"
	switch m.state.Status {
	case models.StatusPlaying:
		icon = "▶"
	case models.StatusPaused, models.StatusLoaded:
		icon = "⏸"
	}

	line := fmt.Sprintf("%s %s", icon, trackLabel(*m.nowPlaying))
	meta := fmt.Sprintf("%s • %s", m.nowPlaying.Source.Label(), m.state.Status)
	if m.state.Halted {
		meta += " • nothing playable left"
	}
	return m.styles.panel.Render(m.styles.text.Render(line) + "\n" + m.styles.help.Render(meta))
}

func trackLabel(t models.Track) string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " - " + t.Artist
}
