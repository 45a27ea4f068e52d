package upstream

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FetchKind selects which upstream endpoint serves a module.
type FetchKind int

const (
	// FetchModule reads through the generic per-project module endpoint.
	FetchModule FetchKind = iota
	// FetchSubmodule reads through the finance submodule endpoint, which
	// also returns the metadata sidecar where one exists.
	FetchSubmodule
)

// SlotKey addresses one fetched (project, module) slot.
type SlotKey struct {
	ProjectID int64
	Module    string
}

// Snapshot is a read-only view over fetched payloads for one selection.
type Snapshot map[SlotKey]Payload

// Get returns the payload for a slot, if it was fetched successfully.
func (s Snapshot) Get(projectID int64, module string) (Payload, bool) {
	p, ok := s[SlotKey{ProjectID: projectID, Module: module}]
	return p, ok
}

// FetchPair describes one fan-out unit of work.
type FetchPair struct {
	Project   Project
	Module    string
	Kind      FetchKind
	Submodule string
}

// Store keeps per-session snapshots versioned by the selection state. A slot
// write is discarded unless its selection version is still current, so a
// response that resolves after the user narrowed their selection can never
// reappear in the table.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionSnapshot
}

type sessionSnapshot struct {
	version int64
	slots   map[SlotKey]Payload
}

// NewStore constructs an empty snapshot store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*sessionSnapshot)}
}

// Begin moves a session to the given selection version. Slots that are no
// longer selected are dropped; surviving slots are kept so unchanged pairs do
// not need a refetch.
func (s *Store) Begin(sessionID string, version int64, selected func(SlotKey) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.sessions[sessionID]
	if snap == nil {
		snap = &sessionSnapshot{slots: make(map[SlotKey]Payload)}
		s.sessions[sessionID] = snap
	}
	snap.version = version
	for key := range snap.slots {
		if selected == nil || !selected(key) {
			delete(snap.slots, key)
		}
	}
}

// Put stores a fetched payload. It reports false when the write was discarded
// because the session has moved to a newer selection version.
func (s *Store) Put(sessionID string, version int64, key SlotKey, payload Payload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.sessions[sessionID]
	if snap == nil || snap.version != version {
		return false
	}
	snap.slots[key] = payload
	return true
}

// Has reports whether a slot is already populated at the current version.
func (s *Store) Has(sessionID string, version int64, key SlotKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.sessions[sessionID]
	if snap == nil || snap.version != version {
		return false
	}
	_, ok := snap.slots[key]
	return ok
}

// Snapshot returns a copy of the session's slots at the given version. An
// empty snapshot is returned when the version is stale.
func (s *Store) Snapshot(sessionID string, version int64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.sessions[sessionID]
	if snap == nil || snap.version != version {
		return Snapshot{}
	}
	out := make(Snapshot, len(snap.slots))
	for key, payload := range snap.slots {
		out[key] = payload
	}
	return out
}

// Drop removes a session's snapshot entirely.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Fetcher fans out per (project, module) against the upstream API. Fetches
// are independent: one failed slot logs and stays empty without aborting its
// siblings.
type Fetcher struct {
	source DataSource
	store  *Store
	logger *slog.Logger
	limit  int
}

// NewFetcher constructs a fetcher with a bounded fan-out.
func NewFetcher(source DataSource, store *Store, logger *slog.Logger) *Fetcher {
	return &Fetcher{source: source, store: store, logger: logger, limit: 8}
}

// Fetch populates the store for the given pairs and returns the resulting
// snapshot. Pairs already present at the current version are skipped.
func (f *Fetcher) Fetch(ctx context.Context, sessionID string, version int64, pairs []FetchPair) Snapshot {
	selected := make(map[SlotKey]bool, len(pairs))
	for _, pair := range pairs {
		selected[SlotKey{ProjectID: pair.Project.ID, Module: pair.Module}] = true
	}
	f.store.Begin(sessionID, version, func(key SlotKey) bool { return selected[key] })

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.limit)
	for _, pair := range pairs {
		key := SlotKey{ProjectID: pair.Project.ID, Module: pair.Module}
		if f.store.Has(sessionID, version, key) {
			continue
		}
		pair := pair
		g.Go(func() error {
			payload, err := f.fetchOne(ctx, pair)
			if err != nil {
				f.logger.Warn("upstream fetch failed",
					slog.String("module", pair.Module),
					slog.Int64("project_id", pair.Project.ID),
					slog.Any("error", err))
				return nil
			}
			if !f.store.Put(sessionID, version, key, payload) {
				f.logger.Debug("discarded stale upstream response",
					slog.String("module", pair.Module),
					slog.Int64("project_id", pair.Project.ID))
			}
			return nil
		})
	}
	_ = g.Wait()
	return f.store.Snapshot(sessionID, version)
}

func (f *Fetcher) fetchOne(ctx context.Context, pair FetchPair) (Payload, error) {
	if pair.Kind == FetchSubmodule {
		name := pair.Submodule
		if name == "" {
			name = pair.Module
		}
		return f.source.FinanceSubmodule(ctx, name, pair.Project.ID)
	}
	return f.source.ProjectModule(ctx, pair.Module, pair.Project.ID)
}
