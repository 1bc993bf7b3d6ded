package services

type LoadRequest struct {
	URL        string
	Generation uint64
}
