// internal/model/payment.go
package model

import "time"

type PaymentStatus string

const (
	PaymentPaid       PaymentStatus = "Paid"
	PaymentPending    PaymentStatus = "Pending"
	PaymentProcessing PaymentStatus = "Processing"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPaid || s == PaymentPending || s == PaymentProcessing
}

// Payment is created only when a campaign completes.
type Payment struct {
	ID           string        `db:"id" json:"id"`
	CampaignID   string        `db:"campaign_id" json:"campaign_id"`
	InfluencerID string        `db:"influencer_id" json:"influencer_id"`
	Amount       float64       `db:"amount" json:"amount"`
	Status       PaymentStatus `db:"status" json:"status"` // Paid, Pending, Processing
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// PaymentData is what the caller supplies when completing a campaign.
type PaymentData struct {
	// Nil means the campaign budget.
	Amount *float64      `json:"amount,omitempty"`
	Status PaymentStatus `json:"status,omitempty"`
}
