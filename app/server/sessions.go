package server

import (
	"log/slog"
	"time"

	"github.com/mahesh-hegde/visualize/app/persistence"
	"github.com/patrickmn/go-cache"
)

// SessionRegistry holds the live configurator sessions. Sessions idle for
// longer than the ttl are evicted and closed.
type SessionRegistry struct {
	c *cache.Cache
}

func NewSessionRegistry(idle time.Duration) *SessionRegistry {
	c := cache.New(idle, time.Minute)
	c.OnEvicted(func(id string, v interface{}) {
		slog.Debug("closing session", "session", id)
		v.(*persistence.Session).Close()
	})
	return &SessionRegistry{c: c}
}

func (r *SessionRegistry) Add(s *persistence.Session) {
	r.c.SetDefault(s.ID, s)
}

// Get returns the session and refreshes its idle timer.
func (r *SessionRegistry) Get(id string) (*persistence.Session, bool) {
	v, ok := r.c.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*persistence.Session)
	r.c.SetDefault(id, s)
	return s, true
}

// Remove closes and forgets the session.
func (r *SessionRegistry) Remove(id string) bool {
	if _, ok := r.c.Get(id); !ok {
		return false
	}
	r.c.Delete(id)
	return true
}

func (r *SessionRegistry) Len() int {
	return r.c.ItemCount()
}
