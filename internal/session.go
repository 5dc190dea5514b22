package internal

import (
	"sync"
)

// Durable keys, one per session field
const (
	KeyIdentity = "user"
	KeySemester = "semester"
	KeySection  = "section"
	KeySubject  = "subject"
)

var sessionKeys = []string{KeyIdentity, KeySemester, KeySection, KeySubject}

// Session is the operator identity and the selected class. An empty string
// means the field is absent.
type Session struct {
	Identity string `json:"identity,omitempty" yaml:"identity,omitempty"`
	Semester string `json:"semester,omitempty" yaml:"semester,omitempty"`
	Section  string `json:"section,omitempty" yaml:"section,omitempty"`
	Subject  string `json:"subject,omitempty" yaml:"subject,omitempty"`
}

// LoggedIn reports whether an identity is present
func (s Session) LoggedIn() bool {
	return s.Identity != ""
}

// Class returns the class selection carried by the session
func (s Session) Class() ClassSelection {
	return ClassSelection{Semester: s.Semester, Section: s.Section, Subject: s.Subject}
}

// SessionContext is the single source of truth for the session. It is
// passed explicitly to every command; screens never write the store directly.
type SessionContext struct {
	// writeMu orders durable writes the same way as the memory updates;
	// mu only guards the in-memory snapshot and subscribers.
	writeMu     sync.Mutex
	mu          sync.RWMutex
	session     Session
	store       KeyValueStore
	subscribers map[int]func(Session)
	nextSubID   int
}

// NewSessionContext hydrates a context from store. Unreadable entries are
// treated as absent.
func NewSessionContext(store KeyValueStore) *SessionContext {
	sc := &SessionContext{
		store:       store,
		subscribers: make(map[int]func(Session)),
	}
	sc.session = Session{
		Identity: sc.load(KeyIdentity),
		Semester: sc.load(KeySemester),
		Section:  sc.load(KeySection),
		Subject:  sc.load(KeySubject),
	}
	return sc
}

func (sc *SessionContext) load(key string) string {
	v, ok, err := sc.store.Get(key)
	if err != nil {
		LogWarn("Failed to read session entry %s: %v", key, err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// Get returns the current snapshot
func (sc *SessionContext) Get() Session {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.session
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes the subscription.
func (sc *SessionContext) Subscribe(fn func(Session)) func() {
	sc.mu.Lock()
	id := sc.nextSubID
	sc.nextSubID++
	sc.subscribers[id] = fn
	sc.mu.Unlock()

	return func() {
		sc.mu.Lock()
		delete(sc.subscribers, id)
		sc.mu.Unlock()
	}
}

// SetIdentity sets or clears the logged in identity
func (sc *SessionContext) SetIdentity(v string) {
	sc.set(KeyIdentity, v, func(s *Session) { s.Identity = v })
}

// SetSemester sets or clears the selected semester
func (sc *SessionContext) SetSemester(v string) {
	sc.set(KeySemester, v, func(s *Session) { s.Semester = v })
}

// SetSection sets or clears the selected section
func (sc *SessionContext) SetSection(v string) {
	sc.set(KeySection, v, func(s *Session) { s.Section = v })
}

// SetSubject sets or clears the selected subject
func (sc *SessionContext) SetSubject(v string) {
	sc.set(KeySubject, v, func(s *Session) { s.Subject = v })
}

// SelectClass stores semester, section and subject in that order
func (sc *SessionContext) SelectClass(c ClassSelection) {
	sc.SetSemester(c.Semester)
	sc.SetSection(c.Section)
	sc.SetSubject(c.Subject)
}

func (sc *SessionContext) set(key, value string, apply func(*Session)) {
	sc.writeMu.Lock()
	sc.mu.Lock()
	apply(&sc.session)
	snapshot := sc.session
	subs := sc.subscriberList()
	sc.mu.Unlock()

	var err error
	if value != "" {
		err = sc.store.Set(key, value)
	} else {
		err = sc.store.Delete(key)
	}
	sc.writeMu.Unlock()

	if err != nil {
		LogWarn("Session entry %s not persisted: %v", key, err)
	}
	notify(subs, snapshot)
}

// Logout clears every field and every durable entry. Readers observe either
// the old session or the empty one. Calling it on an empty session is a no-op
// for subscribers.
func (sc *SessionContext) Logout() {
	sc.writeMu.Lock()
	sc.mu.Lock()
	changed := sc.session != (Session{})
	sc.session = Session{}
	subs := sc.subscriberList()
	sc.mu.Unlock()

	err := sc.store.Delete(sessionKeys...)
	sc.writeMu.Unlock()

	if err != nil {
		LogWarn("Session entries not cleared: %v", err)
	}
	if changed {
		notify(subs, Session{})
	}
}

func (sc *SessionContext) subscriberList() []func(Session) {
	subs := make([]func(Session), 0, len(sc.subscribers))
	for _, fn := range sc.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Session), s Session) {
	for _, fn := range subs {
		fn(s)
	}
}
