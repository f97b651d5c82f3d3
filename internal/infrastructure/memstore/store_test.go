package memstore

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/domain/session"
	apperrors "warden/internal/shared/errors"
	"warden/internal/shared/authorization"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, userID string, createdAt time.Time, lifetime time.Duration) *session.Session {
	t.Helper()
	s, err := session.New(userID, userID+"@example.com", authorization.RoleUser, session.DeviceInfo{}, createdAt, lifetime)
	require.NoError(t, err)
	s.RefreshTokenHash = "hash-" + s.ID
	return s
}

func TestStore_InsertAndGet(t *testing.T) {
	st := New()
	s := newTestSession(t, "usr_1", baseTime, time.Hour)

	require.NoError(t, st.Insert(s))

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "usr_1", got.UserID)

	_, ok = st.Get("sess_missing")
	assert.False(t, ok)
}

func TestStore_InsertDuplicate(t *testing.T) {
	st := New()
	s := newTestSession(t, "usr_1", baseTime, time.Hour)

	require.NoError(t, st.Insert(s))
	err := st.Insert(s)
	require.Error(t, err)

	authErr := apperrors.GetAuthError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, apperrors.ErrorTypeDuplicateSession, authErr.Type)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	st := New()
	s := newTestSession(t, "usr_1", baseTime, time.Hour)
	require.NoError(t, st.Insert(s))

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	got.LastActivityAt = baseTime.Add(time.Hour)

	again, _ := st.Get(s.ID)
	assert.Equal(t, baseTime, again.LastActivityAt, "mutating a returned copy must not affect the store")
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	st := New()
	s := newTestSession(t, "usr_1", baseTime, time.Hour)
	require.NoError(t, st.Insert(s))

	assert.True(t, st.Remove(s.ID))
	assert.False(t, st.Remove(s.ID))

	_, ok := st.Get(s.ID)
	assert.False(t, ok)
}

func TestStore_IndexConsistencyAfterRemove(t *testing.T) {
	st := New()
	s1 := newTestSession(t, "usr_1", baseTime, time.Hour)
	s2 := newTestSession(t, "usr_1", baseTime, time.Hour)
	require.NoError(t, st.Insert(s1))
	require.NoError(t, st.Insert(s2))

	stats := st.Stats(baseTime)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.ActiveUsers)

	st.Remove(s1.ID)
	stats = st.Stats(baseTime)
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 1, stats.ActiveUsers)

	// Removing the user's last session must drop the user from the index
	// entirely, never leave an empty entry.
	st.Remove(s2.ID)
	stats = st.Stats(baseTime)
	assert.Equal(t, 0, stats.TotalSessions)
	assert.Equal(t, 0, stats.ActiveUsers)

	// The refresh-token index is cleaned as well.
	_, ok := st.FindByRefreshTokenHash(s1.RefreshTokenHash)
	assert.False(t, ok)
}

func TestStore_ListByUser(t *testing.T) {
	st := New()
	s1 := newTestSession(t, "usr_1", baseTime, time.Hour)
	s2 := newTestSession(t, "usr_1", baseTime.Add(time.Minute), time.Hour)
	expired := newTestSession(t, "usr_1", baseTime.Add(-2*time.Hour), time.Hour)
	other := newTestSession(t, "usr_2", baseTime, time.Hour)

	for _, s := range []*session.Session{s1, s2, expired, other} {
		require.NoError(t, st.Insert(s))
	}

	now := baseTime.Add(2 * time.Minute)
	got := st.ListByUser("usr_1", now)
	require.Len(t, got, 2, "expired records must be absent from the live view")
	assert.Equal(t, s2.ID, got[0].ID, "most recent activity first")
	assert.Equal(t, s1.ID, got[1].ID)

	// The lazy liveness view must not mutate the stale record.
	stillThere, ok := st.Get(expired.ID)
	require.True(t, ok)
	assert.True(t, stillThere.IsExpired(now))

	assert.Empty(t, st.ListByUser("usr_unknown", now))
}

func TestStore_FindByRefreshTokenHash(t *testing.T) {
	st := New()
	s := newTestSession(t, "usr_1", baseTime, time.Hour)
	require.NoError(t, st.Insert(s))

	got, ok := st.FindByRefreshTokenHash(s.RefreshTokenHash)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)

	_, ok = st.FindByRefreshTokenHash("unknown-hash")
	assert.False(t, ok)

	// Expired sessions are still found; expiry handling is the caller's job.
	expired := newTestSession(t, "usr_2", baseTime.Add(-2*time.Hour), time.Hour)
	require.NoError(t, st.Insert(expired))
	got, ok = st.FindByRefreshTokenHash(expired.RefreshTokenHash)
	require.True(t, ok)
	assert.True(t, got.IsExpired(baseTime))
}

func TestStore_TouchIfLive(t *testing.T) {
	st := New()
	s := newTestSession(t, "usr_1", baseTime, time.Hour)
	require.NoError(t, st.Insert(s))

	now := baseTime.Add(10 * time.Minute)
	got, status := st.TouchIfLive(s.ID, now)
	require.Equal(t, session.TouchOK, status)
	assert.Equal(t, now, got.LastActivityAt)

	persisted, _ := st.Get(s.ID)
	assert.Equal(t, now, persisted.LastActivityAt)

	_, status = st.TouchIfLive("sess_missing", now)
	assert.Equal(t, session.TouchMissing, status)

	late := baseTime.Add(2 * time.Hour)
	got, status = st.TouchIfLive(s.ID, late)
	require.Equal(t, session.TouchExpired, status)
	assert.Equal(t, now, got.LastActivityAt, "expired touch must not bump activity")
}

func TestStore_InsertWithLimit(t *testing.T) {
	st := New()

	// Five sessions with strictly increasing activity times
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		s := newTestSession(t, "usr_1", baseTime.Add(time.Duration(i)*time.Minute), time.Hour)
		require.NoError(t, st.Insert(s))
		ids = append(ids, s.ID)
	}

	now := baseTime.Add(10 * time.Minute)
	incoming := newTestSession(t, "usr_1", now, time.Hour)
	evicted, err := st.InsertWithLimit(incoming, 5, now)
	require.NoError(t, err)

	require.Len(t, evicted, 1)
	assert.Equal(t, ids[0], evicted[0], "oldest-activity session must be the one evicted")

	live := st.ListByUser("usr_1", now)
	assert.Len(t, live, 5)
	for _, s := range live {
		assert.NotEqual(t, ids[0], s.ID)
	}
}

func TestStore_InsertWithLimitReclaimsExpired(t *testing.T) {
	st := New()

	expired := newTestSession(t, "usr_1", baseTime.Add(-2*time.Hour), time.Hour)
	live := newTestSession(t, "usr_1", baseTime, time.Hour)
	require.NoError(t, st.Insert(expired))
	require.NoError(t, st.Insert(live))

	now := baseTime.Add(time.Minute)
	incoming := newTestSession(t, "usr_1", now, time.Hour)
	evicted, err := st.InsertWithLimit(incoming, 5, now)
	require.NoError(t, err)

	assert.Equal(t, []string{expired.ID}, evicted, "stale records are reclaimed, live ones under the cap are kept")
	assert.Len(t, st.ListByUser("usr_1", now), 2)
}

func TestStore_InsertWithLimitEvictsAllOnCapOne(t *testing.T) {
	st := New()
	existing := newTestSession(t, "usr_1", baseTime, time.Hour)
	require.NoError(t, st.Insert(existing))

	now := baseTime.Add(time.Minute)
	incoming := newTestSession(t, "usr_1", now, time.Hour)
	evicted, err := st.InsertWithLimit(incoming, 1, now)
	require.NoError(t, err)

	assert.Equal(t, []string{existing.ID}, evicted)
	live := st.ListByUser("usr_1", now)
	require.Len(t, live, 1)
	assert.Equal(t, incoming.ID, live[0].ID, "the newest session always wins a slot")
}

func TestStore_RemoveAllByUser(t *testing.T) {
	st := New()
	s1 := newTestSession(t, "usr_1", baseTime, time.Hour)
	s2 := newTestSession(t, "usr_1", baseTime, time.Hour)
	expired := newTestSession(t, "usr_1", baseTime.Add(-2*time.Hour), time.Hour)
	other := newTestSession(t, "usr_2", baseTime, time.Hour)

	for _, s := range []*session.Session{s1, s2, expired, other} {
		require.NoError(t, st.Insert(s))
	}

	count := st.RemoveAllByUser("usr_1", baseTime)
	assert.Equal(t, 2, count, "count reflects live sessions only")

	assert.Empty(t, st.ListByUser("usr_1", baseTime))
	_, ok := st.Get(expired.ID)
	assert.False(t, ok, "expired records are physically removed too")

	// Other users untouched
	assert.Len(t, st.ListByUser("usr_2", baseTime), 1)

	assert.Equal(t, 0, st.RemoveAllByUser("usr_1", baseTime))
}

func TestStore_ExpiredIDs(t *testing.T) {
	st := New()
	live := newTestSession(t, "usr_1", baseTime, time.Hour)
	e1 := newTestSession(t, "usr_1", baseTime.Add(-2*time.Hour), time.Hour)
	e2 := newTestSession(t, "usr_2", baseTime.Add(-3*time.Hour), time.Hour)

	for _, s := range []*session.Session{live, e1, e2} {
		require.NoError(t, st.Insert(s))
	}

	ids := st.ExpiredIDs(baseTime)
	assert.ElementsMatch(t, []string{e1.ID, e2.ID}, ids)

	// Collecting must not mutate the store
	stats := st.Stats(baseTime)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 2, stats.ExpiredSessions)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	st := New()
	now := baseTime

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			userID := fmt.Sprintf("usr_%d", g%4)
			for i := 0; i < 50; i++ {
				s, err := session.New(userID, "x@example.com", authorization.RoleUser, session.DeviceInfo{}, now, time.Hour)
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := st.InsertWithLimit(s, 5, now); err != nil {
					t.Error(err)
					return
				}
				st.TouchIfLive(s.ID, now.Add(time.Second))
				st.ListByUser(userID, now)
				st.Stats(now)
			}
		}(g)
	}
	wg.Wait()

	// Limit-enforce-and-insert is atomic, so no user can exceed the cap even
	// with concurrent creations.
	for u := 0; u < 4; u++ {
		userID := fmt.Sprintf("usr_%d", u)
		assert.LessOrEqual(t, len(st.ListByUser(userID, now)), 5, "user %s over cap", userID)
	}
}
