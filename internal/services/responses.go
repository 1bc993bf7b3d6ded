package services

import (
	"time"

	"kmllinks/internal/domain"
)

type LoadResult struct {
	Generation uint64
	Tree       domain.Tree
	Duration   time.Duration
	Documents  int
	LinkErrors []string
}
