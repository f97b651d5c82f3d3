package session

import "sort"

// SelectVictims picks which of a user's live sessions to evict so that
// overflow slots are freed for an incoming session. Victims are ordered by
// ascending last activity (oldest first); ties are broken by session ID so
// eviction stays deterministic under identical timestamps.
//
// The newest session always wins a slot: if overflow meets or exceeds the
// number of candidates, every candidate is selected.
func SelectVictims(candidates []Session, overflow int) []string {
	if overflow <= 0 || len(candidates) == 0 {
		return nil
	}

	ordered := make([]Session, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].LastActivityAt.Equal(ordered[j].LastActivityAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].LastActivityAt.Before(ordered[j].LastActivityAt)
	})

	if overflow > len(ordered) {
		overflow = len(ordered)
	}

	victims := make([]string, 0, overflow)
	for _, s := range ordered[:overflow] {
		victims = append(victims, s.ID)
	}
	return victims
}
