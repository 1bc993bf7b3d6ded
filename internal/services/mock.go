package services

import (
	"context"
	"time"

	"kmllinks/internal/domain"
)

const demoSource = "demo://network-links"

// MockLoader returns a fresh copy of a fixed document after a short delay.
type MockLoader struct {
	Delay  time.Duration
	Build  func() domain.Tree
	Err    error
	status chan StatusEvent
}

func NewMockLoader() *MockLoader {
	return &MockLoader{
		Delay:  350 * time.Millisecond,
		Build:  DemoTree,
		status: make(chan StatusEvent, statusBuffer),
	}
}

func (loader *MockLoader) Status() <-chan StatusEvent {
	return loader.status
}

func (loader *MockLoader) Load(ctx context.Context, req LoadRequest) (LoadResult, error) {
	start := time.Now()
	statusNonBlocking(loader.status, StatusEvent{Generation: req.Generation, URL: req.URL, Status: domain.StatusLoading})
	select {
	case <-ctx.Done():
		statusNonBlocking(loader.status, StatusEvent{Generation: req.Generation, URL: req.URL, Status: domain.StatusFailedToLoad, Message: ctx.Err().Error()})
		return LoadResult{}, ctx.Err()
	case <-time.After(loader.Delay):
	}
	if loader.Err != nil {
		statusNonBlocking(loader.status, StatusEvent{Generation: req.Generation, URL: req.URL, Status: domain.StatusFailedToLoad, Message: loader.Err.Error()})
		return LoadResult{}, loader.Err
	}

	tree := loader.Build()
	if req.URL != "" {
		tree.Source = req.URL
	}
	statusNonBlocking(loader.status, StatusEvent{Generation: req.Generation, URL: req.URL, Status: domain.StatusLoaded})
	return LoadResult{
		Generation: req.Generation,
		Tree:       tree,
		Duration:   time.Since(start),
		Documents:  1,
	}, nil
}

// MockResolver resolves every item id to URL.
type MockResolver struct {
	URL string
	Err error
}

func (resolver MockResolver) ResolveItem(ctx context.Context, itemID string) (string, error) {
	if resolver.Err != nil {
		return "", resolver.Err
	}
	return resolver.URL, nil
}

// DemoTree is the document shown by --demo.
func DemoTree() domain.Tree {
	link := func(id, name string, interval time.Duration, children ...*domain.Node) *domain.Node {
		return &domain.Node{ID: id, Name: name, Kind: domain.NodeNetworkLink, Visible: true,
			RefreshMode: "onInterval", RefreshInterval: interval, Children: children}
	}
	content := func(id, name, description string) *domain.Node {
		return &domain.Node{ID: id, Name: name, Kind: domain.NodeContent, Visible: true, Description: description}
	}
	folder := func(id, name string, children ...*domain.Node) *domain.Node {
		return &domain.Node{ID: id, Name: name, Kind: domain.NodeContainer, Visible: true, Children: children}
	}
	roots := []*domain.Node{
		link("0", "Radar", time.Minute,
			folder("0/0", "Radar frames",
				content("0/0/0", "Frame 1", "Latest radar composite"),
			),
			link("0/1", "Radar tiles", 30*time.Second),
		),
		folder("1", "Static layers",
			content("1/0", "Frankfurt", "Frankfurt am Main"),
			link("1/1", "Folder link", 10*time.Second),
		),
		link("2", "Weather stations", 0,
			content("2/0", "Station A", ""),
			content("2/1", "Station B", ""),
		),
	}
	return domain.Tree{Source: demoSource, Name: "Network link demo", Roots: roots}
}
