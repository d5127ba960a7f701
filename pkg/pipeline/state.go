package pipeline

import "sync"

// sessionState holds the per-session working set that never leaves the
// process: the drift score history, the distinct attack vectors seen,
// and the last memory text that passed the integrity audit. The session
// record in the store stays portable; this is the hot part.
//
// Field access is serialized by the per-session keyed mutex, so the
// struct itself carries no lock.
type sessionState struct {
	scores        []float64
	clusters      map[string]struct{}
	tags          map[string]struct{}
	lastCluster   string
	auditedMemory string
}

func (st *sessionState) noteCluster(cluster string) {
	if cluster == "" || cluster == "benign" {
		return
	}
	if st.clusters == nil {
		st.clusters = make(map[string]struct{})
	}
	st.clusters[cluster] = struct{}{}
}

func (st *sessionState) noteTag(tag string) {
	if tag == "" {
		return
	}
	if st.tags == nil {
		st.tags = make(map[string]struct{})
	}
	st.tags[tag] = struct{}{}
}

// vectorCount approximates how many distinct attack techniques the
// session has tried: one per non-benign drift cluster plus one per
// OWASP category that failed a stage.
func (st *sessionState) vectorCount() int {
	return len(st.clusters) + len(st.tags)
}

// stateTable maps session IDs to their in-process state. The table
// lock guards the map only; the entries themselves are protected by
// the keyed mutex held for the duration of a turn.
type stateTable struct {
	mu sync.Mutex
	m  map[string]*sessionState
}

func newStateTable() *stateTable {
	return &stateTable{m: make(map[string]*sessionState)}
}

func (t *stateTable) get(id string) *sessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.m[id]
	if !ok {
		st = &sessionState{}
		t.m[id] = st
	}
	return st
}

func (t *stateTable) drop(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, id)
}
