package state

import (
	"sync"

	"kmllinks/internal/config"
	"kmllinks/internal/domain"
	"kmllinks/internal/report"
)

type Preferences struct {
	Theme       string
	AutoRefresh bool
}

type VisibleNode struct {
	Node  *domain.Node
	Depth int
}

// Session owns the published document tree and its report. Loads are tagged
// with a generation; only the latest generation may publish.
type Session struct {
	mu         sync.RWMutex
	source     string
	generation uint64
	status     domain.LoadStatus
	lastError  string
	tree       domain.Tree
	report     report.Report

	Cursor   int
	expanded map[string]bool
	Prefs    Preferences
}

func NewSession(cfg config.Config) *Session {
	return &Session{
		status:   domain.StatusNotLoaded,
		expanded: make(map[string]bool),
		Prefs: Preferences{
			Theme:       cfg.Theme,
			AutoRefresh: cfg.AutoRefresh,
		},
	}
}

// BeginLoad starts a new generation and marks the session as loading.
// Any load still running for an older generation becomes stale.
func (session *Session) BeginLoad(source string) uint64 {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.generation++
	session.source = source
	session.status = domain.StatusLoading
	session.lastError = ""
	return session.generation
}

// CompleteLoad publishes tree and replaces the report when generation is
// current. It reports whether the result was accepted.
func (session *Session) CompleteLoad(generation uint64, tree domain.Tree) bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	if generation != session.generation {
		return false
	}
	session.tree = tree
	session.report = report.New(generation, tree.Source, tree.Roots)
	session.status = domain.StatusLoaded
	session.lastError = ""
	session.pruneExpanded()
	return true
}

// FailLoad records a failure for the current generation. The previous tree
// and report stay in place.
func (session *Session) FailLoad(generation uint64, err error) bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	if generation != session.generation {
		return false
	}
	session.status = domain.StatusFailedToLoad
	if err != nil {
		session.lastError = err.Error()
	}
	return true
}

func (session *Session) IsCurrent(generation uint64) bool {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return generation == session.generation
}

func (session *Session) Generation() uint64 {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.generation
}

func (session *Session) Status() domain.LoadStatus {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.status
}

func (session *Session) LastError() string {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.lastError
}

func (session *Session) Source() string {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.source
}

func (session *Session) Tree() domain.Tree {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.tree
}

func (session *Session) Report() report.Report {
	session.mu.RLock()
	defer session.mu.RUnlock()
	copied := session.report
	copied.Entries = append([]report.Entry(nil), session.report.Entries...)
	return copied
}

func (session *Session) ToggleExpanded(id string) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.expanded[id] {
		delete(session.expanded, id)
		return
	}
	session.expanded[id] = true
}

func (session *Session) IsExpanded(id string) bool {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.expanded[id]
}

// VisibleNodes flattens the tree in display order, descending only into
// expanded nodes.
func (session *Session) VisibleNodes() []VisibleNode {
	session.mu.RLock()
	defer session.mu.RUnlock()
	var visible []VisibleNode
	var walk func(nodes []*domain.Node, depth int)
	walk = func(nodes []*domain.Node, depth int) {
		for _, node := range nodes {
			visible = append(visible, VisibleNode{Node: node, Depth: depth})
			if session.expanded[node.ID] {
				walk(node.Children, depth+1)
			}
		}
	}
	walk(session.tree.Roots, 0)
	return visible
}

func (session *Session) CurrentNode() *domain.Node {
	visible := session.VisibleNodes()
	if len(visible) == 0 {
		return nil
	}
	cursor := session.Cursor
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(visible) {
		cursor = len(visible) - 1
	}
	return visible[cursor].Node
}

func (session *Session) MoveCursor(delta int) {
	visible := session.VisibleNodes()
	session.Cursor += delta
	if session.Cursor >= len(visible) {
		session.Cursor = len(visible) - 1
	}
	if session.Cursor < 0 {
		session.Cursor = 0
	}
}

func (session *Session) ToggleTheme() {
	if session.Prefs.Theme == "light" {
		session.Prefs.Theme = "dark"
		return
	}
	session.Prefs.Theme = "light"
}

func (session *Session) ToggleAutoRefresh() bool {
	session.Prefs.AutoRefresh = !session.Prefs.AutoRefresh
	return session.Prefs.AutoRefresh
}

// pruneExpanded drops expansion state for ids missing from the new tree.
func (session *Session) pruneExpanded() {
	ids := make(map[string]bool)
	var walk func(nodes []*domain.Node)
	walk = func(nodes []*domain.Node) {
		for _, node := range nodes {
			ids[node.ID] = true
			walk(node.Children)
		}
	}
	walk(session.tree.Roots)
	filtered := make(map[string]bool, len(session.expanded))
	for id := range session.expanded {
		if ids[id] {
			filtered[id] = true
		}
	}
	session.expanded = filtered
}
