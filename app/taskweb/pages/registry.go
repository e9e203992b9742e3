package pages

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jrazmi/taskdeck/sdk/querycache"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
)

// Query keys shared by the pages.
var (
	sessionKey = querycache.Key{"session"}
	tasksKey   = querycache.Key{"tasks"}
)

func taskKey(taskID string) querycache.Key {
	return querycache.Key{"tasks", taskID}
}

// ClientState is what the front end remembers about one browser session:
// its query cache and the tasks with a toggle in flight.
type ClientState struct {
	Cache *querycache.Cache

	mu      sync.Mutex
	pending map[string]struct{}
}

func (s *ClientState) setPending(taskID string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if on {
		s.pending[taskID] = struct{}{}
		return
	}
	delete(s.pending, taskID)
}

// Pending reports whether a toggle of taskID has not settled yet.
func (s *ClientState) Pending(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.pending[taskID]
	return ok
}

// CacheRegistry holds a bounded set of per-session states keyed by session
// token. Evicted and removed states have their cache closed.
type CacheRegistry struct {
	mu     sync.Mutex
	states *lru.Cache[string, *ClientState]
	opts   []querycache.Option
}

// NewCacheRegistry builds a registry holding at most size sessions. opts
// configure every cache it creates; reads rejected by the API with a client
// error are not retried unless opts say otherwise.
func NewCacheRegistry(size int, opts ...querycache.Option) (*CacheRegistry, error) {
	states, err := lru.NewWithEvict(size, func(_ string, s *ClientState) {
		s.Cache.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("session cache registry: %w", err)
	}

	opts = append([]querycache.Option{querycache.WithRetryable(taskclient.IsRetryable)}, opts...)
	return &CacheRegistry{states: states, opts: opts}, nil
}

// Get returns the state for token, creating it on first use.
func (r *CacheRegistry) Get(token string) *ClientState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.states.Get(token); ok {
		return s
	}

	s := &ClientState{
		Cache:   querycache.New(r.opts...),
		pending: make(map[string]struct{}),
	}
	r.states.Add(token, s)
	return s
}

// Remove drops the state for token and closes its cache.
func (r *CacheRegistry) Remove(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states.Remove(token)
}

// Len reports how many sessions are held.
func (r *CacheRegistry) Len() int {
	return r.states.Len()
}

// Close drops every session.
func (r *CacheRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states.Purge()
}
