// Package memstore implements the session store as an in-memory table with a
// primary index by session ID, a secondary index by user ID, and a lookup
// index by refresh-token hash. All three are mutated together under one lock;
// no caller can observe or create an inconsistent pair of indices.
package memstore

import (
	"sort"
	"sync"
	"time"

	"warden/internal/domain/session"
	apperrors "warden/internal/shared/errors"
)

type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*session.Session
	byUser    map[string]map[string]struct{}
	byRefresh map[string]string // refresh token hash -> session ID
}

func New() *Store {
	return &Store{
		sessions:  make(map[string]*session.Session),
		byUser:    make(map[string]map[string]struct{}),
		byRefresh: make(map[string]string),
	}
}

var _ session.Store = (*Store)(nil)

func (st *Store) Insert(s *session.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.insertLocked(s)
}

func (st *Store) InsertWithLimit(s *session.Session, maxPerUser int, now time.Time) ([]string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	var removed []string

	live := make([]session.Session, 0, len(st.byUser[s.UserID]))
	for sid := range st.byUser[s.UserID] {
		rec := st.sessions[sid]
		if rec.IsExpired(now) {
			// Reclaim stale records for this user in the same pass; they do
			// not count toward the cap.
			st.removeLocked(sid)
			removed = append(removed, sid)
			continue
		}
		live = append(live, *rec)
	}

	if maxPerUser > 0 {
		overflow := len(live) - maxPerUser + 1
		for _, sid := range session.SelectVictims(live, overflow) {
			st.removeLocked(sid)
			removed = append(removed, sid)
		}
	}

	if err := st.insertLocked(s); err != nil {
		return removed, err
	}
	return removed, nil
}

func (st *Store) Get(sessionID string) (session.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	rec, ok := st.sessions[sessionID]
	if !ok {
		return session.Session{}, false
	}
	return *rec, true
}

func (st *Store) Remove(sessionID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[sessionID]; !ok {
		return false
	}
	st.removeLocked(sessionID)
	return true
}

func (st *Store) RemoveAllByUser(userID string, now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	ids := make([]string, 0, len(st.byUser[userID]))
	for sid := range st.byUser[userID] {
		ids = append(ids, sid)
	}

	liveCount := 0
	for _, sid := range ids {
		if !st.sessions[sid].IsExpired(now) {
			liveCount++
		}
		st.removeLocked(sid)
	}
	return liveCount
}

func (st *Store) ListByUser(userID string, now time.Time) []session.Session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	result := make([]session.Session, 0, len(st.byUser[userID]))
	for sid := range st.byUser[userID] {
		rec := st.sessions[sid]
		if rec.IsExpired(now) {
			continue
		}
		result = append(result, *rec)
	}

	// Most recent activity first, matching how session lists are shown
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastActivityAt.Equal(result[j].LastActivityAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].LastActivityAt.After(result[j].LastActivityAt)
	})
	return result
}

func (st *Store) FindByRefreshTokenHash(hash string) (session.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sid, ok := st.byRefresh[hash]
	if !ok {
		return session.Session{}, false
	}
	return *st.sessions[sid], true
}

func (st *Store) TouchIfLive(sessionID string, now time.Time) (session.Session, session.TouchStatus) {
	st.mu.Lock()
	defer st.mu.Unlock()

	rec, ok := st.sessions[sessionID]
	if !ok {
		return session.Session{}, session.TouchMissing
	}
	if rec.IsExpired(now) {
		return *rec, session.TouchExpired
	}
	rec.UpdateActivity(now)
	return *rec, session.TouchOK
}

func (st *Store) ExpiredIDs(now time.Time) []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var ids []string
	for sid, rec := range st.sessions {
		if rec.IsExpired(now) {
			ids = append(ids, sid)
		}
	}
	return ids
}

func (st *Store) Stats(now time.Time) session.Stats {
	st.mu.RLock()
	defer st.mu.RUnlock()

	expired := 0
	for _, rec := range st.sessions {
		if rec.IsExpired(now) {
			expired++
		}
	}

	return session.Stats{
		TotalSessions:   len(st.sessions),
		ActiveUsers:     len(st.byUser),
		ExpiredSessions: expired,
	}
}

// insertLocked adds the record to all three indices. Caller holds the lock.
func (st *Store) insertLocked(s *session.Session) error {
	if _, exists := st.sessions[s.ID]; exists {
		return apperrors.NewDuplicateSessionError(s.ID)
	}

	rec := *s
	st.sessions[s.ID] = &rec

	userSet, ok := st.byUser[s.UserID]
	if !ok {
		userSet = make(map[string]struct{})
		st.byUser[s.UserID] = userSet
	}
	userSet[s.ID] = struct{}{}

	if s.RefreshTokenHash != "" {
		st.byRefresh[s.RefreshTokenHash] = s.ID
	}
	return nil
}

// removeLocked deletes the record from all three indices, dropping the user's
// set entirely when it empties. Caller holds the lock and has checked existence.
func (st *Store) removeLocked(sessionID string) {
	rec, ok := st.sessions[sessionID]
	if !ok {
		return
	}
	delete(st.sessions, sessionID)

	if userSet, ok := st.byUser[rec.UserID]; ok {
		delete(userSet, sessionID)
		if len(userSet) == 0 {
			delete(st.byUser, rec.UserID)
		}
	}

	if rec.RefreshTokenHash != "" {
		delete(st.byRefresh, rec.RefreshTokenHash)
	}
}
