package cube

import (
	"context"
	"time"

	"github.com/mahesh-hegde/visualize/app/common"
	"github.com/patrickmn/go-cache"
)

// CachedSource memoizes metadata per (iri, locale). Cached values are shared
// and must be treated as read-only by callers.
type CachedSource struct {
	inner MetadataSource
	c     *cache.Cache
}

var _ MetadataSource = &CachedSource{}

func NewCachedSource(inner MetadataSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		inner: inner,
		c:     cache.New(ttl, 2*ttl),
	}
}

func cacheKey(iri string, locale common.Locale) string {
	return string(locale) + "|" + iri
}

func (s *CachedSource) Metadata(ctx context.Context, iri string, locale common.Locale) (*Metadata, error) {
	key := cacheKey(iri, locale)
	if v, ok := s.c.Get(key); ok {
		return v.(*Metadata), nil
	}
	m, err := s.inner.Metadata(ctx, iri, locale)
	if err != nil {
		return nil, err
	}
	s.c.Set(key, m, cache.DefaultExpiration)
	return m, nil
}

func (s *CachedSource) Len() int {
	return s.c.ItemCount()
}
