package scoring

import "time"

// DefaultStaleAfter is how old a snapshot may get before a background refresh.
const DefaultStaleAfter = 7 * 24 * time.Hour

// ShouldRefresh is true when the snapshot was never fetched or is older than DefaultStaleAfter.
func ShouldRefresh(lastFetched *time.Time, now time.Time) bool {
	return ShouldRefreshAfter(lastFetched, now, DefaultStaleAfter)
}

func ShouldRefreshAfter(lastFetched *time.Time, now time.Time, staleAfter time.Duration) bool {
	if lastFetched == nil || lastFetched.IsZero() {
		return true
	}
	return now.Sub(*lastFetched) > staleAfter
}
