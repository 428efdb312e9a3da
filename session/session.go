// Package session keeps in-progress registration wizards in memory.
//
// Sessions expire after a period of inactivity; expiry counts as the business
// abandoning the registration. Drafts are never persisted.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/wizard"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const DefaultTTL = 30 * time.Minute

var ErrNotFound = errors.New("session not found")

type session struct {
	mu     sync.Mutex
	wizard *wizard.Wizard
}

// EvictedFunc is called once a session leaves the registry, either because it
// expired or was deleted. It is never called with the session locked by Do.
type EvictedFunc func(id uuid.UUID, w *wizard.Wizard)

type Registry struct {
	c   *gocache.Cache
	ttl time.Duration
}

func NewRegistry(ttl time.Duration, onEvicted EvictedFunc) *Registry {
	c := gocache.New(ttl, time.Minute)
	if onEvicted != nil {
		c.OnEvicted(func(key string, v any) {
			s, ok := v.(*session)
			if !ok {
				return
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			onEvicted(uuid.MustParse(key), s.wizard)
		})
	}

	return &Registry{
		c:   c,
		ttl: ttl,
	}
}

func (r *Registry) Create(flow wizard.Flow) uuid.UUID {
	id := uuid.New()
	r.c.SetDefault(id.String(), &session{wizard: wizard.New(flow)})
	return id
}

// Do runs fn with exclusive access to the session's wizard. Calls for the same
// session run one at a time in arrival order of the lock; each call pushes
// the expiry back. fn must not call Delete for the same session.
func (r *Registry) Do(id uuid.UUID, fn func(w *wizard.Wizard) error) error {
	key := id.String()

	v, ok := r.c.Get(key)
	if !ok {
		return ErrNotFound
	}
	s := v.(*session)

	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn(s.wizard)

	// Replace fails for a key that is gone, so a session deleted or expired
	// meanwhile is not brought back to life.
	_ = r.c.Replace(key, s, gocache.DefaultExpiration)

	return err
}

func (r *Registry) Delete(id uuid.UUID) {
	r.c.Delete(id.String())
}

func (r *Registry) Count() int {
	return r.c.ItemCount()
}

// Flush evicts every session, running the eviction hook for each.
func (r *Registry) Flush() {
	for key := range r.c.Items() {
		r.c.Delete(key)
	}
}
