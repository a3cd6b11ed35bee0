package game

import (
	"context"
	"time"
)

// Fetcher retrieves raw page content for a target URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Extractor parses raw page markup into a platform-specific draft.
type Extractor interface {
	Extract(html string, pageURL string) ScrapedData
}

// Enricher queries an external knowledge source for fields that are
// unreliable from HTML alone. Implementations are best-effort: total
// failure yields an empty patch, not an error the pipeline must handle.
type Enricher interface {
	Enrich(ctx context.Context, title string, storeURL string) (EnrichmentResult, error)
}

// SnapshotStore persists raw page bodies for audit and returns a URI.
type SnapshotStore interface {
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes analysis lifecycle events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (swappable in tests).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces identifiers for analyses and queue entries.
type IDGenerator interface {
	NewID() (string, error)
}
