package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"kmllinks/internal/domain"
)

type LoaderOptions struct {
	MaxDepth    int
	Concurrency int
}

// KMLLoader loads a KML document and resolves its network links into a
// complete tree. The tree is built privately and only returned once finished.
type KMLLoader struct {
	fetcher     *Fetcher
	maxDepth    int
	concurrency int
	status      chan StatusEvent
	log         logrus.FieldLogger
}

type pendingLink struct {
	node      *domain.Node
	location  string
	ancestors map[string]bool
}

func NewKMLLoader(fetcher *Fetcher, opts LoaderOptions, log logrus.FieldLogger) *KMLLoader {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 4
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &KMLLoader{
		fetcher:     fetcher,
		maxDepth:    opts.MaxDepth,
		concurrency: opts.Concurrency,
		status:      make(chan StatusEvent, statusBuffer),
		log:         log,
	}
}

func (loader *KMLLoader) Status() <-chan StatusEvent {
	return loader.status
}

func (loader *KMLLoader) Invalidate(location string) {
	loader.fetcher.Invalidate(location)
}

func (loader *KMLLoader) InvalidateAll() {
	loader.fetcher.InvalidateAll()
}

func (loader *KMLLoader) Load(ctx context.Context, req LoadRequest) (LoadResult, error) {
	start := time.Now()
	log := loader.log.WithFields(logrus.Fields{"generation": req.Generation, "url": req.URL})
	statusNonBlocking(loader.status, StatusEvent{Generation: req.Generation, URL: req.URL, Status: domain.StatusLoading})

	roots, err := loader.document(ctx, req.URL, 0)
	if err != nil {
		statusNonBlocking(loader.status, StatusEvent{Generation: req.Generation, URL: req.URL, Status: domain.StatusFailedToLoad, Message: err.Error()})
		log.WithError(err).Warn("load failed")
		return LoadResult{}, fmt.Errorf("load %s: %w", req.URL, err)
	}

	var (
		mu         sync.Mutex
		linkErrors []string
		documents  = 1
	)
	onLinkError := func(link pendingLink, err error) {
		mu.Lock()
		linkErrors = append(linkErrors, fmt.Sprintf("%s: %v", link.node.Name, err))
		mu.Unlock()
		statusNonBlocking(loader.status, StatusEvent{
			Generation: req.Generation,
			URL:        link.location,
			Status:     domain.StatusLoading,
			Message:    fmt.Sprintf("network link %q: %v", link.node.Name, err),
			Warning:    true,
		})
	}

	pending := collectLinks(roots, req.URL, map[string]bool{req.URL: true})
	for depth := 1; len(pending) > 0; depth++ {
		if depth > loader.maxDepth {
			log.WithField("unresolved", len(pending)).Debug("network link depth limit reached")
			break
		}
		next, err := loader.resolveLevel(ctx, pending, onLinkError)
		if err != nil {
			statusNonBlocking(loader.status, StatusEvent{Generation: req.Generation, URL: req.URL, Status: domain.StatusFailedToLoad, Message: err.Error()})
			return LoadResult{}, fmt.Errorf("load %s: %w", req.URL, err)
		}
		documents += len(pending)
		pending = next
	}

	tree := domain.Tree{Source: req.URL, Roots: roots}
	if len(roots) > 0 {
		tree.Name = roots[0].Name
	}
	duration := time.Since(start)
	statusNonBlocking(loader.status, StatusEvent{Generation: req.Generation, URL: req.URL, Status: domain.StatusLoaded})
	log.WithFields(logrus.Fields{"nodes": tree.Count(), "documents": documents, "elapsed": duration}).Info("load complete")
	return LoadResult{
		Generation: req.Generation,
		Tree:       tree,
		Duration:   duration,
		Documents:  documents - len(linkErrors),
		LinkErrors: linkErrors,
	}, nil
}

// resolveLevel fetches every pending link concurrently and returns the links
// found inside the fetched documents. Only context errors abort the level.
func (loader *KMLLoader) resolveLevel(ctx context.Context, pending []pendingLink, onError func(pendingLink, error)) ([]pendingLink, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(loader.concurrency)
	found := make([][]pendingLink, len(pending))
	for i := range pending {
		i, link := i, pending[i]
		group.Go(func() error {
			roots, err := loader.document(groupCtx, link.location, link.node.RefreshInterval)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				link.node.LoadError = err.Error()
				onError(link, err)
				return nil
			}
			link.node.Children = roots
			ancestors := make(map[string]bool, len(link.ancestors)+1)
			for location := range link.ancestors {
				ancestors[location] = true
			}
			ancestors[link.location] = true
			found[i] = collectLinks(roots, link.location, ancestors)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	var next []pendingLink
	for _, links := range found {
		next = append(next, links...)
	}
	return next, nil
}

func (loader *KMLLoader) document(ctx context.Context, location string, expiry time.Duration) ([]*domain.Node, error) {
	data, err := loader.fetcher.Fetch(ctx, location, expiry)
	if err != nil {
		return nil, err
	}
	return ParseKML(bytes.NewReader(data))
}

// collectLinks finds unresolved network links in nodes, searching containers
// but not the children of other links. Links back to an ancestor document are
// marked and skipped.
func collectLinks(nodes []*domain.Node, base string, ancestors map[string]bool) []pendingLink {
	var links []pendingLink
	for _, node := range nodes {
		switch node.Kind {
		case domain.NodeNetworkLink:
			if node.Href == "" {
				continue
			}
			location := resolveHref(base, node.Href)
			if ancestors[location] {
				node.LoadError = "network link refers back to " + location
				continue
			}
			links = append(links, pendingLink{node: node, location: location, ancestors: ancestors})
		case domain.NodeContainer:
			links = append(links, collectLinks(node.Children, base, ancestors)...)
		case domain.NodeContent:
		}
	}
	return links
}
