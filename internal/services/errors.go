package services

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound = errors.New("portal item not found")
	ErrNoKML        = errors.New("no kml document")
)

type HTTPError struct {
	URL        string
	StatusCode int
}

func (err *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", err.URL, err.StatusCode)
}
