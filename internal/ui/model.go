package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"kmllinks/internal/config"
	"kmllinks/internal/domain"
	"kmllinks/internal/report"
	"kmllinks/internal/services"
	"kmllinks/internal/state"
)

const loadErrorMessage = "Sample error: an error occurred loading the KML dataset"

type Model struct {
	session  *state.Session
	loader   services.Loader
	resolver services.Resolver
	status   <-chan services.StatusEvent
	invalid  services.Invalidator
	cfg      config.Config
	log      logrus.FieldLogger
	keys     KeyMap
	showHelp bool
	message  string
	warning  bool
	source   string
	cancel   context.CancelFunc
	width    int
	height   int
	viewTop  int
	lastLoad services.LoadResult
}

type ConfigProvider interface {
	ConfigSnapshot() config.Config
}

func NewModel(session *state.Session, loader services.Loader, resolver services.Resolver, cfg config.Config, log logrus.FieldLogger) Model {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultConfig().Timeout
	}
	return Model{
		session:  session,
		loader:   loader,
		resolver: resolver,
		status:   services.StatusOf(loader),
		invalid:  services.InvalidatorOf(loader),
		cfg:      cfg,
		log:      log,
		keys:     DefaultKeyMap(),
		message:  "Loading...",
		source:   cfg.URL,
		width:    100,
		height:   30,
	}
}

func (model Model) WithStatus(message string) Model {
	if message != "" {
		model.message = message
	}
	return model
}

func (model Model) ConfigSnapshot() config.Config {
	snapshot := model.cfg
	snapshot.Theme = model.session.Prefs.Theme
	snapshot.AutoRefresh = model.session.Prefs.AutoRefresh
	return snapshot
}

func (model Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return reloadMsg{} },
		waitForStatus(model.status),
	)
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.ensureCursorVisible()
		return model, nil
	case reloadMsg:
		if typed.invalidate && model.invalid != nil {
			model.invalid.InvalidateAll()
		}
		return model.beginLoad()
	case loadResultMsg:
		return model.handleLoadResult(typed)
	case statusMsg:
		model.handleStatus(typed.event)
		return model, waitForStatus(model.status)
	case refreshTickMsg:
		if !model.session.IsCurrent(typed.generation) || !model.session.Prefs.AutoRefresh {
			return model, nil
		}
		if model.session.Status() == domain.StatusLoading {
			return model, nil
		}
		model.log.WithField("generation", typed.generation).Debug("refresh interval elapsed")
		return model.beginLoad()
	default:
		return model, nil
	}
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Quit):
		if model.cancel != nil {
			model.cancel()
			model.cancel = nil
		}
		return model, tea.Quit
	case key.Matches(msg, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	case key.Matches(msg, model.keys.Up):
		model.session.MoveCursor(-1)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Down):
		model.session.MoveCursor(1)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Expand):
		node := model.session.CurrentNode()
		if node == nil || len(node.Children) == 0 {
			return model, nil
		}
		model.session.ToggleExpanded(node.ID)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Reload):
		return model.Update(reloadMsg{invalidate: true})
	case key.Matches(msg, model.keys.AutoRefresh):
		if model.session.ToggleAutoRefresh() {
			model.message = "Auto refresh on"
			return model, model.refreshCmd()
		}
		model.message = "Auto refresh off"
		return model, nil
	case key.Matches(msg, model.keys.Theme):
		model.session.ToggleTheme()
		return model, nil
	default:
		return model, nil
	}
}

// beginLoad starts a new generation. A load still running for an older
// generation is cancelled and its result will be ignored.
func (model Model) beginLoad() (Model, tea.Cmd) {
	if model.cancel != nil {
		model.cancel()
	}
	generation := model.session.BeginLoad(model.source)
	ctx, cancel := context.WithTimeout(context.Background(), model.cfg.Timeout)
	model.cancel = cancel
	model.warning = false
	model.message = "Loading..."
	return model, model.loadCmd(ctx, cancel, generation)
}

func (model Model) loadCmd(ctx context.Context, cancel context.CancelFunc, generation uint64) tea.Cmd {
	source := model.source
	itemID := model.cfg.ItemID
	loader := model.loader
	resolver := model.resolver
	return func() tea.Msg {
		defer cancel()
		var err error
		if source == "" {
			if resolver == nil {
				return loadResultMsg{generation: generation, err: errors.New("no dataset url configured")}
			}
			source, err = resolver.ResolveItem(ctx, itemID)
			if err != nil {
				return loadResultMsg{generation: generation, err: err}
			}
		}
		result, err := loader.Load(ctx, services.LoadRequest{URL: source, Generation: generation})
		return loadResultMsg{generation: generation, source: source, result: result, err: err}
	}
}

func (model Model) handleLoadResult(msg loadResultMsg) (tea.Model, tea.Cmd) {
	log := model.log.WithField("generation", msg.generation)
	if msg.err != nil {
		if !model.session.FailLoad(msg.generation, msg.err) {
			log.WithError(msg.err).Debug("discarding stale load failure")
			return model, nil
		}
		model.cancel = nil
		model.warning = true
		if errors.Is(msg.err, context.Canceled) {
			model.message = "Load cancelled"
			return model, nil
		}
		log.WithError(msg.err).Error("load failed")
		model.message = fmt.Sprintf("%s: %v", loadErrorMessage, msg.err)
		return model, nil
	}
	if !model.session.CompleteLoad(msg.generation, msg.result.Tree) {
		log.Debug("discarding stale load result")
		return model, nil
	}
	model.cancel = nil
	if msg.source != "" {
		model.source = msg.source
	}
	model.lastLoad = msg.result
	rep := model.session.Report()
	model.warning = len(msg.result.LinkErrors) > 0
	model.message = fmt.Sprintf("Loaded %d network links (%s)", len(rep.Entries), msg.result.Duration.Round(time.Millisecond))
	if model.warning {
		model.message = fmt.Sprintf("%s, %d link errors", model.message, len(msg.result.LinkErrors))
	}
	model.ensureCursorVisible()
	return model, model.refreshCmd()
}

func (model *Model) handleStatus(event services.StatusEvent) {
	if !model.session.IsCurrent(event.Generation) {
		return
	}
	if event.Warning {
		model.log.WithField("url", event.URL).Warn(event.Message)
		model.message = "Warning: " + event.Message
		model.warning = true
		return
	}
	if event.Status == domain.StatusLoading {
		model.message = "Loading " + event.URL
	}
}

// refreshCmd schedules a reload after the shortest network link interval.
func (model Model) refreshCmd() tea.Cmd {
	if !model.session.Prefs.AutoRefresh {
		return nil
	}
	interval := refreshInterval(model.session.Report(), model.cfg.MinRefresh)
	if interval <= 0 {
		return nil
	}
	generation := model.session.Generation()
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return refreshTickMsg{generation: generation}
	})
}

func refreshInterval(rep report.Report, floor time.Duration) time.Duration {
	interval := rep.ShortestInterval()
	if interval <= 0 {
		return 0
	}
	if interval < floor {
		return floor
	}
	return interval
}

func waitForStatus(channel <-chan services.StatusEvent) tea.Cmd {
	if channel == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return nil
		}
		return statusMsg{event: event}
	}
}

func (model *Model) ensureCursorVisible() {
	visible := model.session.VisibleNodes()
	if len(visible) == 0 {
		model.session.Cursor = 0
		model.viewTop = 0
		return
	}
	if model.session.Cursor >= len(visible) {
		model.session.Cursor = len(visible) - 1
	}
	if model.session.Cursor < 0 {
		model.session.Cursor = 0
	}
	height := model.listHeight()
	if model.session.Cursor < model.viewTop {
		model.viewTop = model.session.Cursor
	}
	if model.session.Cursor >= model.viewTop+height {
		model.viewTop = model.session.Cursor - height + 1
	}
	if model.viewTop < 0 {
		model.viewTop = 0
	}
}

func (model Model) listHeight() int {
	height := model.height - 5
	if height < 3 {
		return 3
	}
	return height
}
