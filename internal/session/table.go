package session

import "sync"

// Table holds in-flight sessions keyed by sender external id. Every method is
// an atomic read-modify-write of a single entry.
type Table struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewTable() *Table {
	return &Table{
		sessions: make(map[int64]*Session),
	}
}

// Begin replaces any existing session for the sender with a fresh one.
func (t *Table) Begin(externalID int64) Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &Session{Step: AwaitingFirstName}
	t.sessions[externalID] = s
	return *s
}

func (t *Table) Get(externalID int64) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[externalID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

func (t *Table) Active(externalID int64) bool {
	_, ok := t.Get(externalID)
	return ok
}

// Discard removes the sender's session and reports whether one existed.
func (t *Table) Discard(externalID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.sessions[externalID]
	delete(t.sessions, externalID)
	return ok
}

// Advance applies fn to the sender's session and returns the resulting state.
// A session that fn moves to Complete is removed from the table before the
// lock is released. ok is false when the sender has no session.
func (t *Table) Advance(externalID int64, fn func(s *Session)) (result Session, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[externalID]
	if !ok {
		return Session{}, false
	}
	fn(s)
	if s.Step == Complete {
		delete(t.sessions, externalID)
	}
	return *s, true
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.sessions)
}
