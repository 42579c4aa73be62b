package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MarketplaceSource is the uniform capability interface implemented once per
// marketplace. The reconciliation engine depends only on this interface;
// the final SKU cross-check is the single place the two sources are told
// apart, via Name.
type MarketplaceSource interface {
	Name() Source
	Search(ctx context.Context, query string) ([]CandidateProduct, error)
	GetVariants(ctx context.Context, productID string) ([]SizeVariant, error)
	GetMarketData(ctx context.Context, productID string, variant SizeVariant) (*MarketSnapshot, error)
}
