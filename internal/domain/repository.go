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

// ContentAccessor renders a URL into textual and structural content.
// Failures wrap ErrContentUnavailable.
type ContentAccessor interface {
	Render(ctx context.Context, url string) (*PageContent, error)
}

// WebsiteDiscovery looks up an alternate (usually official) website for a
// restaurant. An empty URL with a nil error means nothing was found.
type WebsiteDiscovery interface {
	FindWebsite(ctx context.Context, name, location string) (string, error)
}

// OCREngine recognizes text in an image. Implementations shared between
// workers must be safe for concurrent use.
type OCREngine interface {
	Available() bool
	Recognize(ctx context.Context, image []byte) ([]OCRToken, error)
}

// ImageFetcher downloads an image and decodes its dimensions
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (*Image, error)
}
