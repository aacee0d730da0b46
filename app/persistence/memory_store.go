package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/patrickmn/go-cache"
)

// MemorySessionStore keeps states in process memory. Entries expire after
// ttl without writes; a zero ttl keeps them forever.
type MemorySessionStore struct {
	c *cache.Cache
}

var _ SessionStore = &MemorySessionStore{}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemorySessionStore{c: cache.New(ttl, 10*time.Minute)}
}

func (m *MemorySessionStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (m *MemorySessionStore) Set(_ context.Context, key string, value string) error {
	m.c.SetDefault(key, value)
	return nil
}

func (m *MemorySessionStore) Remove(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// MemoryChartStore keeps published charts in memory, serialized so that
// fetched charts never share state with saved ones.
type MemoryChartStore struct {
	c *cache.Cache
}

var _ ChartStore = &MemoryChartStore{}

func NewMemoryChartStore() *MemoryChartStore {
	return &MemoryChartStore{c: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryChartStore) Save(_ context.Context, chart chartconfig.SavedChart) (string, error) {
	raw, err := json.Marshal(chart)
	if err != nil {
		return "", fmt.Errorf("error while encoding chart: %w", err)
	}
	key := NewChartID()
	m.c.Set(key, raw, cache.NoExpiration)
	return key, nil
}

func (m *MemoryChartStore) Fetch(_ context.Context, key string) (*chartconfig.SavedChart, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, fmt.Errorf("chart %s: %w", key, ErrNotFound)
	}
	var chart chartconfig.SavedChart
	if err := json.Unmarshal(v.([]byte), &chart); err != nil {
		return nil, fmt.Errorf("chart %s: %w", key, err)
	}
	return &chart, nil
}

// Put stores a raw document under key. Used to seed fixtures.
func (m *MemoryChartStore) Put(key string, raw []byte) {
	m.c.Set(key, raw, cache.NoExpiration)
}
