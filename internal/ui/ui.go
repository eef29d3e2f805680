package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LinkListView ViewState = iota
	ConvertView
	ResultView
	ConfirmView
	BuildView
	PlaylistView
)

const DefaultPlaylistName = "Shared Songs"

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.ConversionEngine
	builder      *tasks.PlaylistBuilder
	playlistName string
	width        int
	height       int
	links        []models.MusicLink
	linkList     list.Model
	outcomeList  list.Model
	wait         tea.Cmd
	progress     tasks.ProgressUpdate
	outcomes     []models.Outcome
	summary      models.Summary
	playlist     *models.PlaylistOutcome
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model over links. A nil builder disables playlist creation.
func NewModel(ctx context.Context, links []models.MusicLink, engine *tasks.ConversionEngine, builder *tasks.PlaylistBuilder) *Model {
	items := make([]list.Item, len(links))
	for i, l := range links {
		items[i] = linkItem{link: l}
	}
	linkList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	linkList.Title = fmt.Sprintf("%d Music Links", len(links))

	outcomeList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	outcomeList.Title = "Conversion Results"

	return &Model{
		ctx:          ctx,
		view:         LinkListView,
		engine:       engine,
		builder:      builder,
		playlistName: DefaultPlaylistName,
		links:        links,
		linkList:     linkList,
		outcomeList:  outcomeList,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// SetPlaylistName sets the name used when creating a playlist from the results.
func (m *Model) SetPlaylistName(name string) {
	if name != "" {
		m.playlistName = name
	}
}

// Init has no startup work; the links are already loaded.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.linkList.SetSize(msg.Width-4, msg.Height-8)
		m.outcomeList.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LinkListView:
			return m.handleLinkListKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case PlaylistView:
			return m.handlePlaylistKeys(msg)
		default:
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.wait

	case MsgConvertComplete:
		m.outcomes = msg.data.([]models.Outcome)
		m.summary = models.Summarize(m.outcomes)
		m.wait = nil

		items := make([]list.Item, len(m.outcomes))
		for i, o := range m.outcomes {
			items[i] = outcomeItem{outcome: o}
		}
		cmd := m.outcomeList.SetItems(items)
		m.view = ResultView
		return m, cmd

	case MsgBuildComplete:
		res := msg.data.(buildResult)
		m.playlist, m.err = res.outcome, res.err
		m.wait = nil
		m.view = PlaylistView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LinkListView:
		return m.renderLinkList()
	case ConvertView:
		return m.renderConvert()
	case ResultView:
		return m.renderResult()
	case ConfirmView:
		return m.renderConfirm()
	case BuildView:
		return m.renderBuild()
	case PlaylistView:
		return m.renderPlaylist()
	default:
		return ""
	}
}

func (m *Model) handleLinkListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.linkList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if len(m.links) == 0 || m.engine == nil {
			return m, nil
		}
		m.view = ConvertView
		m.progress = tasks.ProgressUpdate{Total: len(m.links)}
		return m, m.startConvert()
	}
	return m.updateLists(msg)
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.outcomeList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.reset()
		return m, nil
	case key.Matches(msg, m.keys.playlist):
		if m.builder != nil && m.summary.Matched > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = BuildView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startBuild()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = ResultView
	}
	return m, nil
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ResultView
		m.playlist, m.err = nil, nil
	case key.Matches(msg, m.keys.restart):
		m.reset()
	}
	return m, nil
}

func (m *Model) reset() {
	m.view = LinkListView
	m.outcomes = nil
	m.summary = models.Summary{}
	m.playlist = nil
	m.err = nil
	m.outcomeList.SetItems(nil)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LinkListView:
		m.linkList, cmd = m.linkList.Update(msg)
	case ResultView:
		m.outcomeList, cmd = m.outcomeList.Update(msg)
	}
	return m, cmd
}

// startConvert runs the engine in the background. Outcomes are delivered after the progress channel closes.
func (m *Model) startConvert() tea.Cmd {
	urls := make([]string, len(m.links))
	for i, l := range m.links {
		urls[i] = l.URL
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan []models.Outcome, 1)
	go func() {
		done <- m.engine.Convert(m.ctx, urls, progress)
		close(progress)
	}()

	m.wait = waitFor(progress, func() Msg { return convertCompleteMsg(<-done) })
	return m.wait
}

func (m *Model) startBuild() tea.Cmd {
	req := tasks.MatchedRequest(m.outcomes, m.playlistName, fmt.Sprintf("%d links converted by songlinks", m.summary.Total))

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan buildResult, 1)
	go func() {
		outcome, err := m.builder.Build(m.ctx, req, progress)
		done <- buildResult{outcome: outcome, err: err}
		close(progress)
	}()

	m.wait = waitFor(progress, func() Msg {
		res := <-done
		return buildCompleteMsg(res.outcome, res.err)
	})
	return m.wait
}

// waitFor relays progress updates one at a time, then the result of finish once progress is closed.
func waitFor(progress <-chan tasks.ProgressUpdate, finish func() Msg) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return finish()
	}
}

func (m *Model) renderLinkList() string {
	keys := []key.Binding{m.keys.enter, m.keys.quit}
	if len(m.links) == 0 {
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render("No music links found."), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}
	return fmt.Sprintf("%s\n\n%s", m.linkList.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderConvert() string {
	title := styles.title.Render("Converting Links")

	var phase string
	switch m.progress.Phase {
	case tasks.ConvertLinks:
		phase = fmt.Sprintf("Converting link %d/%d", m.progress.Step, m.progress.Total)
	case tasks.LinkDone:
		phase = fmt.Sprintf("Finished %d/%d", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderSummary() string {
	return fmt.Sprintf("%s matched  %s unmatched  %s errors  (%.1f%% of %d)",
		styles.ok.Render(fmt.Sprint(m.summary.Matched)),
		styles.warn.Render(fmt.Sprint(m.summary.Unmatched)),
		styles.err.Render(fmt.Sprint(m.summary.Errors)),
		m.summary.MatchRate(),
		m.summary.Total,
	)
}

func (m *Model) renderResult() string {
	keys := []key.Binding{m.keys.up, m.keys.down}
	if m.builder != nil && m.summary.Matched > 0 {
		keys = append(keys, m.keys.playlist)
	}
	keys = append(keys, m.keys.restart, m.keys.quit)
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.renderSummary(), m.outcomeList.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderConfirm() string {
	req := tasks.MatchedRequest(m.outcomes, m.playlistName, "")
	title := styles.title.Render(fmt.Sprintf("Create Spotify playlist '%s'?", m.playlistName))
	info := fmt.Sprintf("\nTracks: %d\nAlbums: %d\n", len(req.TrackIDs), len(req.AlbumIDs))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderBuild() string {
	title := styles.title.Render("Creating Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchUser:
		phase = "Fetching Spotify profile..."
	case tasks.CreatePlaylist:
		phase = "Creating playlist on Spotify..."
	case tasks.ExpandAlbums:
		phase = fmt.Sprintf("Expanding albums (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Summarize:
		phase = "Summarizing..."
	default:
		phase = "Processing..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderPlaylist() string {
	keys := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.restart, m.keys.quit})
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Playlist creation failed: %v", m.err)), keys)
	}
	if m.playlist == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No playlist available"), keys)
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Playlist Created!"))
	fmt.Fprintf(&b, "\n\nURL: %s\nTracks added: %d", m.playlist.PlaylistURL, m.playlist.TracksAdded)

	if len(m.playlist.Errors) > 0 {
		b.WriteString("\n\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("%d items failed:", len(m.playlist.Errors))))
		for _, e := range m.playlist.Errors {
			fmt.Fprintf(&b, "\n  • %s: %s", e.ItemID, e.Reason)
		}
	}
	fmt.Fprintf(&b, "\n\n%s", keys)
	return b.String()
}
