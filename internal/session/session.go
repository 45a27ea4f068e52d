// Package session keeps per-user selection state and pending edits in Redis,
// keyed by a browser cookie. A session never stores fetched data or generated
// rows: those are recomputed from the selection on every request.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oneview-energy/oneview/internal/intelligence"
)

// CookieName identifies the session cookie.
const CookieName = "oneview_session"

const keyPrefix = "oneview:session:"

// Data is the persisted slice of a session: one selection state and one edit
// list per intelligence page.
type Data struct {
	States map[string]*intelligence.State `json:"states"`
	Edits  map[string][]intelligence.Edit `json:"edits"`
}

// Session is one user's loaded session. Mutations mark it dirty; only dirty
// sessions write back on Commit.
type Session struct {
	ID    string
	data  Data
	isNew bool
	dirty bool
}

// State returns the selection state for a page, creating an empty one on
// first access.
func (s *Session) State(page string) *intelligence.State {
	if s.data.States == nil {
		s.data.States = make(map[string]*intelligence.State)
	}
	state, ok := s.data.States[page]
	if !ok {
		state = intelligence.NewState(page)
		s.data.States[page] = state
	}
	return state
}

// Tracker rebuilds the edit tracker for a page.
func (s *Session) Tracker(page string) *intelligence.Tracker {
	return intelligence.FromList(s.data.Edits[page])
}

// SetTracker stores a page's tracker back into the session.
func (s *Session) SetTracker(page string, tracker *intelligence.Tracker) {
	if s.data.Edits == nil {
		s.data.Edits = make(map[string][]intelligence.Edit)
	}
	edits := tracker.ToList()
	if len(edits) == 0 {
		delete(s.data.Edits, page)
	} else {
		s.data.Edits[page] = edits
	}
	s.dirty = true
}

// Touch marks the session dirty so state mutations made through State()
// pointers persist on Commit.
func (s *Session) Touch() {
	s.dirty = true
}

// Manager loads and persists sessions against Redis.
type Manager struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewManager constructs a session manager.
func NewManager(client *redis.Client, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{client: client, ttl: ttl, secure: secure}
}

// Load resolves the request's session, creating a fresh one when the cookie
// is absent or its Redis entry expired.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return m.newSession(), nil
		}
		return nil, err
	}

	raw, err := m.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := m.newSession()
			sess.ID = cookie.Value
			return sess, nil
		}
		return nil, err
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &Session{ID: cookie.Value, data: data}, nil
}

// Get loads a session by id without a request, for background workers. An
// expired or unknown id yields an empty session under that id.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := m.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Session{ID: sessionID, isNew: true}, nil
		}
		return nil, err
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &Session{ID: sessionID, data: data}, nil
}

// Commit writes a dirty session back to Redis and refreshes the cookie.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}
	if sess.dirty || sess.isNew {
		raw, err := json.Marshal(sess.data)
		if err != nil {
			return err
		}
		if err := m.client.Set(ctx, keyPrefix+sess.ID, raw, m.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
		sess.isNew = false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(m.ttl),
	})
	return nil
}

// Drop deletes a session's Redis entry.
func (m *Manager) Drop(ctx context.Context, sessionID string) error {
	err := m.client.Del(ctx, keyPrefix+sessionID).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// TTL exposes the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) newSession() *Session {
	return &Session{ID: uuid.NewString(), isNew: true}
}
