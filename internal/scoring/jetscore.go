// Package scoring derives an influencer's JetScore and recommended price from
// a metrics snapshot. Everything here is pure: same input, same output.
package scoring

import (
	"math"

	"github.com/unclebandit/jetmatch-backend/internal/model"
)

const (
	followerWeight   = 0.30
	engagementWeight = 0.40
	activityWeight   = 0.30

	// Engagement rate (percent) and weekly posts that earn full credit.
	engagementCeiling = 5.0
	activityCeiling   = 3.0
)

// JetScore is the composite score with the three component scores behind it.
type JetScore struct {
	Score           int     `json:"jet_score"`
	FollowerScore   float64 `json:"follower_score"`
	EngagementScore float64 `json:"engagement_score"`
	ActivityScore   float64 `json:"activity_score"`
}

// FollowerScore is a step function of reach.
func FollowerScore(followers int64) float64 {
	switch {
	case followers >= 1_000_000:
		return 100
	case followers >= 100_000:
		return 80
	case followers >= 10_000:
		return 50
	case followers >= 1_000:
		return 20
	default:
		return 10
	}
}

func EngagementScore(ratePercent float64) float64 {
	return ceilingScore(ratePercent, engagementCeiling)
}

func ActivityScore(postsPerWeek float64) float64 {
	return ceilingScore(postsPerWeek, activityCeiling)
}

func ceilingScore(v, ceiling float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return math.Min(100, v/ceiling*100)
}

// ScoreJet computes the JetScore and its breakdown.
func ScoreJet(s model.MetricsSnapshot) JetScore {
	f := FollowerScore(s.FollowersCount)
	e := EngagementScore(s.EngagementRatePercent)
	a := ActivityScore(s.PostsPerWeek)

	score := int(math.Round(followerWeight*f + engagementWeight*e + activityWeight*a))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return JetScore{
		Score:           score,
		FollowerScore:   f,
		EngagementScore: e,
		ActivityScore:   a,
	}
}

// ComputeJetScore returns the 0-100 JetScore for a snapshot.
func ComputeJetScore(s model.MetricsSnapshot) int {
	return ScoreJet(s).Score
}
