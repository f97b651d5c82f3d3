package session

import "time"

// TouchStatus is the outcome of an atomic lookup-and-touch on a session.
type TouchStatus int

const (
	TouchMissing TouchStatus = iota
	TouchExpired
	TouchOK
)

// Stats is a point-in-time view of the store for operational dashboards.
// ExpiredSessions counts records past their expiry that the sweeper has not
// yet reclaimed (sweep backlog).
type Stats struct {
	TotalSessions   int `json:"total_sessions"`
	ActiveUsers     int `json:"active_users"`
	ExpiredSessions int `json:"expired_sessions"`
}

// Store is the authoritative table of session records. Implementations must
// keep the primary index (by session ID) and the secondary index (by user ID)
// consistent within every mutating call, and must make the limit-enforcing
// insert a single atomic operation.
//
// Read methods return copies; callers never observe in-place mutation.
type Store interface {
	// Insert adds a session to both indices. It fails only when the session
	// ID already exists, which indicates a broken ID generation strategy.
	Insert(s *Session) error

	// InsertWithLimit evicts the user's least-recently-active live sessions
	// until the new session fits under maxPerUser, then inserts. Expired
	// records found for the user are reclaimed in the same pass. Returns the
	// IDs of every removed session. Check-and-insert happens under one
	// critical section.
	InsertWithLimit(s *Session, maxPerUser int, now time.Time) (evicted []string, err error)

	// Get returns the session with the given ID, if present, expired or not.
	Get(sessionID string) (Session, bool)

	// Remove deletes the session from both indices and reports whether it
	// existed. Removing an absent ID is a no-op.
	Remove(sessionID string) bool

	// RemoveAllByUser deletes every session for the user and returns how
	// many live sessions were among them.
	RemoveAllByUser(userID string, now time.Time) int

	// ListByUser returns the user's live sessions ordered by most recent
	// activity first. Stale-but-unswept records are treated as absent
	// without being mutated.
	ListByUser(userID string, now time.Time) []Session

	// FindByRefreshTokenHash returns the session bound to the given refresh
	// token hash, expired or not; expiry handling is the caller's decision.
	FindByRefreshTokenHash(hash string) (Session, bool)

	// TouchIfLive bumps LastActivityAt when the session exists and is live,
	// and reports what it found. The expired record is returned unmodified
	// so the caller can act on it.
	TouchIfLive(sessionID string, now time.Time) (Session, TouchStatus)

	// ExpiredIDs returns the IDs of every record past its expiry, without
	// mutating anything. The sweeper collects first and destroys after.
	ExpiredIDs(now time.Time) []string

	// Stats returns the current store statistics.
	Stats(now time.Time) Stats
}
