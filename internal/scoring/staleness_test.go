package scoring_test

import (
	"testing"
	"time"

	"github.com/unclebandit/jetmatch-backend/internal/scoring"
)

func TestShouldRefresh(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	if !scoring.ShouldRefresh(nil, now) {
		t.Errorf("never-fetched snapshot must refresh")
	}
	if !scoring.ShouldRefresh(&time.Time{}, now) {
		t.Errorf("zero timestamp must refresh")
	}
	if scoring.ShouldRefresh(at(6*24*time.Hour), now) {
		t.Errorf("6 day old snapshot is fresh")
	}
	if scoring.ShouldRefresh(at(7*24*time.Hour), now) {
		t.Errorf("exactly 7 days old is not yet stale")
	}
	if !scoring.ShouldRefresh(at(8*24*time.Hour), now) {
		t.Errorf("8 day old snapshot is stale")
	}
}
