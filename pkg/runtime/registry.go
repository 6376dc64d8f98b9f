package runtime

import (
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	agent "github.com/Protocol-Lattice/agent-server"
)

// Entry is an agent stored in the registry together with what it was built from.
type Entry struct {
	ID        string
	Spec      AgentSpec
	Agent     *agent.Agent
	CreatedAt time.Time
}

// registry is the in-memory id -> agent map. Ids are ULIDs, so concurrent creates with
// the same name and model never collide.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	newID   func() string
}

func newRegistry(newID func() string) *registry {
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &registry{
		entries: make(map[string]*Entry),
		newID:   newID,
	}
}

func (r *registry) add(e *Entry) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(e)
}

// replace drops every stored agent and inserts e in a single critical section. The
// dropped entries are returned so their clients can be released.
func (r *registry) replace(e *Entry) (string, []*Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := r.drainLocked()
	return r.insertLocked(e), dropped
}

func (r *registry) drainLocked() []*Entry {
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.entries = make(map[string]*Entry)
	return out
}

func (r *registry) insertLocked(e *Entry) string {
	e.ID = r.newID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.entries[e.ID] = e
	return e.ID
}

func (r *registry) get(id string) (*Entry, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	return e, ok
}

func (r *registry) remove(id string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	delete(r.entries, id)
	return e, true
}

func (r *registry) clear() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drainLocked()
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// list returns the stored entries ordered by id, which for ULIDs is creation order.
func (r *registry) list() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
