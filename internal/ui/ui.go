package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/soundfence/internal/formatter"
	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/repositories"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/desertthunder/soundfence/internal/tasks"
	"github.com/desertthunder/soundfence/internal/theme"
)

const (
	LogSize       = 10  // notifications kept on the dashboard
	DefaultBuffer = 256 // progress updates queued between the monitor and the view
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DashboardView ViewState = iota
	PlaylistListView
	TrackListView
)

// WatchFunc runs the position feed, reporting through progress, and returns once its source is exhausted or ctx
// ends. The dashboard closes progress after it returns.
type WatchFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.WatchResult, error)

// Options configures a [Model].
type Options struct {
	Regions []geofence.RegionState // initial snapshot
	Watch   WatchFunc              // optional; without it the dashboard is static
	Engine  *tasks.PlaylistEngine  // optional; enables the playlists view
	Theme   *theme.Store           // defaults to a dark store
	Buffer  int                    // progress channel capacity, default DefaultBuffer
}

// notification is one rendered transition.
type notification struct {
	title string
	body  string
	kind  geofence.EventKind
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	theme    *theme.Store
	styles   *Palette
	engine   *tasks.PlaylistEngine
	watch    WatchFunc
	buffer   int
	regions  []geofence.RegionState
	position *geofence.Position
	seen     int
	skipped  int
	log      []notification

	progressChan chan tasks.ProgressUpdate
	doneChan     chan watchOutcome
	watching     bool
	result       *tasks.WatchResult

	playlistList list.Model
	trackList    list.Model
	selected     *models.PlaylistExport
	status       string

	width  int
	height int
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	store := opts.Theme
	if store == nil {
		store = theme.NewStore(theme.Dark)
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	regions := make([]geofence.RegionState, len(opts.Regions))
	copy(regions, opts.Regions)

	return &Model{
		ctx:     ctx,
		view:    DashboardView,
		theme:   store,
		styles:  NewPalette(store.Palette()),
		engine:  opts.Engine,
		watch:   opts.Watch,
		buffer:  buffer,
		regions: regions,
		help:    help.New(),
		keys:    newKeyMap(),

		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
	}
}

// Init starts the position feed, if any.
func (m *Model) Init() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	return m.startWatch()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.apply(msg.data.(tasks.ProgressUpdate))
		return m, m.waitForProgress()

	case MsgWatchComplete:
		out := msg.data.(watchOutcome)
		m.watching = false
		m.result = out.result
		if out.err != nil && !errors.Is(out.err, context.Canceled) {
			m.err = out.err
		}
		if out.result != nil {
			m.regions = out.result.Snapshot
		}
		return m, nil

	case MsgPlaylistsFetched:
		out := msg.data.(playlistsPayload)
		if out.err != nil {
			m.err = out.err
			m.view = DashboardView
			return m, nil
		}
		items := make([]list.Item, len(out.playlists))
		for i, pl := range out.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Your Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case MsgTracksFetched:
		out := msg.data.(tracksPayload)
		if out.err != nil {
			m.err = out.err
			m.view = PlaylistListView
			return m, nil
		}
		m.selected = out.playlist
		m.setTracks(out.saved)
		m.view = TrackListView
		return m, nil

	case MsgSavedChanged:
		out := msg.data.(savedPayload)
		switch {
		case errors.Is(out.err, repositories.ErrNoMoreTracks):
			m.status = "No more songs to add"
		case out.err != nil:
			m.status = fmt.Sprintf("Error: %v", out.err)
		default:
			m.status = out.status
			m.setTracks(out.saved)
		}
		return m, nil
	}
	return m, nil
}

// apply folds one progress update into the dashboard state.
func (m *Model) apply(u tasks.ProgressUpdate) {
	switch u.Phase {
	case tasks.ObservePosition:
		if pos, ok := u.Data.(geofence.Position); ok {
			m.position = &pos
		}
		m.seen++

	case tasks.SkipPosition:
		m.skipped++

	case tasks.Transition:
		ev, ok := u.Data.(geofence.TransitionEvent)
		if !ok {
			return
		}
		for i := range m.regions {
			if m.regions[i].Region.ID == ev.RegionID {
				m.regions[i].Inside = ev.Kind == geofence.Entered
			}
		}
		m.log = append(m.log, notification{
			title: formatter.NotificationTitle(ev.Kind),
			body:  formatter.Notification(ev),
			kind:  ev.Kind,
		})
		if len(m.log) > LogSize {
			m.log = m.log[len(m.log)-LogSize:]
		}
	}
}

func (m *Model) setTracks(saved []models.Track) {
	tracks := saved
	title := "Songs in '%s'"
	if tracks == nil && m.selected != nil && !m.canEdit() {
		tracks = m.selected.Tracks
		title = "Catalog tracks in '%s'"
	}

	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	if m.selected != nil {
		m.trackList.Title = fmt.Sprintf(title, m.selected.Playlist.Title)
	}
	m.trackList.SetSize(m.width-4, m.height-8)
}

func (m *Model) canEdit() bool {
	return m.engine != nil && m.engine.Editable()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.view != DashboardView && m.activeList().FilterState() == list.Filtering

	if !filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.theme):
			m.ToggleTheme()
			return m, nil
		case key.Matches(msg, m.keys.tab):
			return m.switchView()
		}
	}

	switch m.view {
	case PlaylistListView:
		if !filtering && key.Matches(msg, m.keys.enter) {
			if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
				return m, m.fetchTracks(pl.playlist.ID)
			}
		}
	case TrackListView:
		if !filtering {
			switch {
			case key.Matches(msg, m.keys.back):
				m.view = PlaylistListView
				m.status = ""
				return m, nil
			case key.Matches(msg, m.keys.add) && m.selected != nil && m.canEdit():
				return m, m.addTrack(m.selected.Playlist.ID)
			case key.Matches(msg, m.keys.remove) && m.selected != nil && m.canEdit():
				if t, ok := m.trackList.SelectedItem().(trackItem); ok {
					return m, m.removeTrack(m.selected.Playlist.ID, t.track)
				}
			}
		}
	}

	return m.updateLists(msg)
}

func (m *Model) switchView() (tea.Model, tea.Cmd) {
	if m.view != DashboardView {
		m.view = DashboardView
		return m, nil
	}
	if m.engine == nil {
		return m, nil
	}

	m.view = PlaylistListView
	m.err = nil
	if len(m.playlistList.Items()) == 0 {
		return m, m.fetchPlaylists()
	}
	return m, nil
}

// ToggleTheme flips the theme store and restyles the dashboard.
func (m *Model) ToggleTheme() theme.Mode {
	mode := m.theme.Toggle()
	m.styles = NewPalette(m.theme.Palette())
	return mode
}

func (m *Model) activeList() *list.Model {
	if m.view == TrackListView {
		return &m.trackList
	}
	return &m.playlistList
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startWatch() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, m.buffer)
	m.doneChan = make(chan watchOutcome, 1)
	m.watching = true

	progress, done := m.progressChan, m.doneChan
	go func() {
		result, err := m.watch(m.ctx, progress)
		close(progress)
		done <- watchOutcome{result, err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			out := <-done
			return watchCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.engine.Playlists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) fetchTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		export, err := m.engine.Export(m.ctx, nil, playlistID)
		if err != nil {
			return tracksFetchedMsg(nil, nil, err)
		}
		saved, err := m.engine.Saved(playlistID)
		if err != nil && !errors.Is(err, shared.ErrServiceUnavailable) {
			return tracksFetchedMsg(nil, nil, err)
		}
		return tracksFetchedMsg(export, saved, nil)
	}
}

func (m *Model) addTrack(playlistID string) tea.Cmd {
	return func() tea.Msg {
		added, err := m.engine.AddNext(m.ctx, playlistID)
		if err != nil {
			return savedChangedMsg(nil, "", err)
		}
		saved, err := m.engine.Saved(playlistID)
		return savedChangedMsg(saved, fmt.Sprintf("Added %s - %s", added.Artist, added.Title), err)
	}
}

func (m *Model) removeTrack(playlistID string, track models.Track) tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.Remove(playlistID, track.ID); err != nil {
			return savedChangedMsg(nil, "", err)
		}
		saved, err := m.engine.Saved(playlistID)
		return savedChangedMsg(saved, fmt.Sprintf("Removed %s", track.Title), err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	default:
		return m.renderDashboard()
	}
}

func (m *Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render(fmt.Sprintf("soundfence • %s theme", m.theme.Mode())))
	b.WriteString("\n")

	b.WriteString(m.styles.text.Render("Regions"))
	b.WriteString("\n")
	for _, s := range m.regions {
		marker, style, state := "○", m.styles.outside, "outside"
		if s.Inside {
			marker, style, state = "●", m.styles.inside, "inside"
		}
		b.WriteString(style.Render(fmt.Sprintf("  %s %-24s %-8s %.0fm", marker, s.Region.Name(), state, s.Region.RadiusMeters)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	position := "waiting for position..."
	if m.position != nil {
		position = m.position.String()
	}
	b.WriteString(m.styles.text.Render(fmt.Sprintf("Position: %s", position)))
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render(m.feedStatus()))
	b.WriteString("\n\n")

	b.WriteString(m.styles.text.Render("Notifications"))
	b.WriteString("\n")
	if len(m.log) == 0 {
		b.WriteString(m.styles.help.Render("  none yet"))
		b.WriteString("\n")
	}
	for i := len(m.log) - 1; i >= 0; i-- {
		n := m.log[i]
		style := m.styles.outside
		if n.kind == geofence.Entered {
			style = m.styles.inside
		}
		b.WriteString("  " + m.styles.panel.Render(style.Render(n.title)+"  "+n.body))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m *Model) feedStatus() string {
	switch {
	case m.watching:
		return fmt.Sprintf("watching • %d positions, %d skipped", m.seen, m.skipped)
	case m.result != nil:
		return fmt.Sprintf("feed finished • %d of %d positions accepted, %d transitions",
			m.result.PositionsAccepted, m.result.PositionsSeen, len(m.result.Events))
	default:
		return fmt.Sprintf("%d positions", m.seen)
	}
}

func (m *Model) renderPlaylistList() string {
	if m.err != nil {
		return m.styles.err.Render(fmt.Sprintf("Error: %v\n\nPress tab to go back, q to quit", m.err))
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.tab, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if m.canEdit() {
		helpKeys = []key.Binding{m.keys.add, m.keys.remove, m.keys.back, m.keys.quit}
	}

	status := ""
	if m.status != "" {
		status = "\n" + m.styles.warn.Render(m.status)
	}
	return fmt.Sprintf("%s%s\n\n%s", m.trackList.View(), status, m.help.ShortHelpView(helpKeys))
}
