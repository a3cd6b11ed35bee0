// Package cache stores the most recent analysis report so it can be
// re-served without re-running the pipeline.
package cache

import "context"

// LastReportKey is the fixed key the latest report is stored under.
const LastReportKey = "analysis:last_result"

// Cache is a minimal byte cache. Get returns ok=false on a miss.
type Cache interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
}
