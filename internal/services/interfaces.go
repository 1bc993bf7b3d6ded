package services

import "context"

type Resolver interface {
	ResolveItem(ctx context.Context, itemID string) (string, error)
}

type Loader interface {
	Load(ctx context.Context, req LoadRequest) (LoadResult, error)
}
