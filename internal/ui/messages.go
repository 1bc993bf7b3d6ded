package ui

import "kmllinks/internal/services"

// reloadMsg starts a new load generation. A manual reload also drops cached
// documents so every link is fetched again.
type reloadMsg struct {
	invalidate bool
}

type loadResultMsg struct {
	generation uint64
	source     string
	result     services.LoadResult
	err        error
}

type statusMsg struct {
	event services.StatusEvent
}

type refreshTickMsg struct {
	generation uint64
}
