// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pdiddy/clause-risk/pkg/types"
)

// Source is anything that turns a Document into RawText.
type Source interface {
	Extract(ctx context.Context, doc types.Document) types.RawText
}

// CachedExtractor memoizes extraction results per document. Entries are
// keyed by fingerprint plus file size and modification time, so an edited
// file is extracted again. Failed extractions are not cached.
type CachedExtractor struct {
	next  Source
	cache *gocache.Cache
}

// NewCached wraps next with a cache whose entries expire after ttl.
func NewCached(next Source, ttl time.Duration) *CachedExtractor {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CachedExtractor{next: next, cache: gocache.New(ttl, 2*ttl)}
}

func (c *CachedExtractor) Extract(ctx context.Context, doc types.Document) types.RawText {
	key := cacheKey(doc)
	if key != "" {
		if v, ok := c.cache.Get(key); ok {
			return v.(types.RawText)
		}
	}
	raw := c.next.Extract(ctx, doc)
	if key != "" && raw.Method != types.MethodNone && ctx.Err() == nil {
		c.cache.SetDefault(key, raw)
	}
	return raw
}

// Len returns the number of live entries.
func (c *CachedExtractor) Len() int { return c.cache.ItemCount() }

func cacheKey(doc types.Document) string {
	info, err := os.Stat(doc.Path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", doc.ID, info.Size(), info.ModTime().UnixNano())
}
