// internal/model/event.go
package model

import "time"

// CampaignEvent is published after every successful lifecycle transition.
type CampaignEvent struct {
	Type         string         `json:"type"`
	CampaignID   string         `json:"campaign_id"`
	Title        string         `json:"title"`
	Status       CampaignStatus `json:"status"`
	BusinessID   string         `json:"business_id,omitempty"`
	BusinessName string         `json:"business_name,omitempty"`
	InfluencerID string         `json:"influencer_id,omitempty"`
	Influencer   string         `json:"influencer,omitempty"`
	PaymentID    string         `json:"payment_id,omitempty"`
	Amount       float64        `json:"amount,omitempty"`
	At           time.Time      `json:"at"`
}

const (
	EventCampaignCreated   = "campaign.created"
	EventCampaignSubmitted = "campaign.submitted"
	EventCampaignApproved  = "campaign.approved"
	EventCampaignApplied   = "campaign.applied"
	EventCampaignOffered   = "campaign.offered"
	EventCampaignAccepted  = "campaign.accepted"
	EventCampaignRejected  = "campaign.rejected"
	EventCampaignCompleted = "campaign.completed"
)

// MetricsRefreshJob asks the refresh worker to re-fetch one handle.
type MetricsRefreshJob struct {
	Handle      string    `json:"handle"`
	RequestedAt time.Time `json:"requested_at"`
}
