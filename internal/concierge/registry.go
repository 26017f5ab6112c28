package concierge

import (
	"sync"

	"github.com/spigell/career-bot/internal/ai"
	"github.com/spigell/career-bot/internal/conversation"
	"github.com/spigell/career-bot/internal/grounding"
	"github.com/spigell/career-bot/internal/interactions"
)

// State is everything one session owns. It is created by Service.Open and
// passed explicitly to every turn.
type State struct {
	ID           string
	Conversation *conversation.Session
	Documents    []grounding.DocumentRef
	Grounding    grounding.Context
	Index        *grounding.IndexHandle
	Thread       *ai.Thread
	Strategy     ai.Strategy
	Recorder     interactions.Recorder
	// Notices are user-facing messages about how the session was set up.
	Notices []string
}

// Grounded reports whether answers draw on any document.
func (s *State) Grounded() bool {
	return s.Index != nil || !s.Grounding.Empty()
}

// Registry holds sessions by id. It also keeps the managed index built for
// an id, so a session whose assistant failed to open reuses the index when
// it is opened again.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*State
	indexes  map[string]*grounding.IndexHandle
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*State),
		indexes:  make(map[string]*grounding.IndexHandle),
	}
}

func (r *Registry) Get(id string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.sessions[id]
	return state, ok
}

func (r *Registry) Put(state *State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[state.ID] = state
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	delete(r.indexes, id)
}

// Index returns the managed index built for id, if any.
func (r *Registry) Index(id string) *grounding.IndexHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.indexes[id]
}

func (r *Registry) PutIndex(id string, index *grounding.IndexHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.indexes[id] = index
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
