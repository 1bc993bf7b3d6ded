package domain

type LoadStatus int

const (
	StatusNotLoaded LoadStatus = iota
	StatusLoading
	StatusLoaded
	StatusFailedToLoad
)

func (status LoadStatus) String() string {
	switch status {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailedToLoad:
		return "failed"
	default:
		return "not loaded"
	}
}
