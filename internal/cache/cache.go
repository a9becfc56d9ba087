// Package cache holds short computed strings such as the announcement
// banner and featured-speaker lines.
package cache

import "context"

// Cache is a string key/value cache. Get reports ok=false on a miss.
type Cache interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}
