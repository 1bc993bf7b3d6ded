package services

import (
	"kmllinks/internal/domain"
)

// StatusEvent reports a load status change for one generation.
type StatusEvent struct {
	Generation uint64
	URL        string
	Status     domain.LoadStatus
	Message    string
	Warning    bool
}

type StatusProvider interface {
	Status() <-chan StatusEvent
}

type Invalidator interface {
	Invalidate(url string)
	InvalidateAll()
}

const statusBuffer = 64

func statusNonBlocking(channel chan StatusEvent, event StatusEvent) {
	if channel == nil {
		return
	}
	select {
	case channel <- event:
	default:
	}
}

func statusProvider(loader Loader) StatusProvider {
	provider, _ := loader.(StatusProvider)
	return provider
}

// StatusOf returns the loader's status feed, or nil when it has none.
func StatusOf(loader Loader) <-chan StatusEvent {
	if provider := statusProvider(loader); provider != nil {
		return provider.Status()
	}
	return nil
}

// InvalidatorOf returns the loader's cache invalidator, or nil when it has none.
func InvalidatorOf(loader Loader) Invalidator {
	invalidator, _ := loader.(Invalidator)
	return invalidator
}
