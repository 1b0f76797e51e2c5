// internal/model/influencer.go
package model

import "time"

type Influencer struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	ProfilePicture string    `db:"profile_picture" json:"profile_picture"`
	Handle         string    `db:"handle" json:"handle"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

func (i *Influencer) Ref() InfluencerRef {
	return InfluencerRef{
		ID:             i.ID,
		Name:           i.Name,
		Email:          i.Email,
		ProfilePicture: i.ProfilePicture,
	}
}

// MetricsSnapshot is the periodically refreshed social metrics for one handle.
type MetricsSnapshot struct {
	Handle                string     `json:"handle"`
	FollowersCount        int64      `json:"followers_count"`
	EngagementRatePercent float64    `json:"engagement_rate_percent"`
	PostsPerWeek          float64    `json:"posts_per_week"`
	AvgLikes              float64    `json:"avg_likes"`
	AvgComments           float64    `json:"avg_comments"`
	LastFetched           *time.Time `json:"last_fetched,omitempty"`
}

// AvgEngagement is the raw per-post interaction volume.
func (s MetricsSnapshot) AvgEngagement() float64 {
	return s.AvgLikes + s.AvgComments
}
