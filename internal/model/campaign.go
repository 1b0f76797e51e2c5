// internal/model/campaign.go
package model

import (
	"fmt"
	"time"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
)

type CampaignStatus string

const (
	StatusDraft           CampaignStatus = "draft"
	StatusPendingApproval CampaignStatus = "pending_approval"
	StatusActive          CampaignStatus = "active"
	StatusOffered         CampaignStatus = "offered"
	StatusAccepted        CampaignStatus = "accepted"
	StatusRejected        CampaignStatus = "rejected"
	StatusCompleted       CampaignStatus = "completed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusActive, StatusOffered,
		StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Assigned reports whether a campaign in this status must carry an assignee.
func (s CampaignStatus) Assigned() bool {
	switch s {
	case StatusOffered, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

type ApplicantStatus string

const (
	ApplicantPending  ApplicantStatus = "pending"
	ApplicantAccepted ApplicantStatus = "accepted"
	ApplicantRejected ApplicantStatus = "rejected"
)

func (s ApplicantStatus) Valid() bool {
	return s == ApplicantPending || s == ApplicantAccepted || s == ApplicantRejected
}

type Applicant struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	AppliedAt time.Time       `json:"applied_at"`
	Status    ApplicantStatus `json:"status"`
}

// InfluencerRef is the identity copied onto a campaign when it is offered.
type InfluencerRef struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type Campaign struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Description    string         `db:"description" json:"description"`
	Requirements   string         `db:"requirements" json:"requirements"`
	Goal           string         `db:"goal" json:"goal"`
	EngagementTier string         `db:"engagement_tier" json:"engagement_tier"`
	Budget         float64        `db:"budget" json:"budget"`
	StartDate      *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time     `db:"end_date" json:"end_date,omitempty"`
	BusinessID     string         `db:"business_id" json:"business_id"`
	BusinessName   string         `db:"business_name" json:"business_name"`
	Status         CampaignStatus `db:"status" json:"status"`
	Applicants     []Applicant    `db:"applicants" json:"applicants"`
	AssignedTo     *InfluencerRef `db:"assigned_to" json:"assigned_to"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	ApprovedAt     *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	AssignedAt     *time.Time     `db:"assigned_at" json:"assigned_at,omitempty"`
	AcceptedAt     *time.Time     `db:"accepted_at" json:"accepted_at,omitempty"`
	RejectedAt     *time.Time     `db:"rejected_at" json:"rejected_at,omitempty"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt      *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// CampaignPatch holds the administratively editable fields. Lifecycle fields
// (status, applicants, assignee, transition timestamps) are deliberately absent.
type CampaignPatch struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Requirements   *string    `json:"requirements,omitempty"`
	Goal           *string    `json:"goal,omitempty"`
	EngagementTier *string    `json:"engagement_tier,omitempty"`
	Budget         *float64   `json:"budget,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	BusinessName   *string    `json:"business_name,omitempty"`
}

func (p CampaignPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Requirements == nil &&
		p.Goal == nil && p.EngagementTier == nil && p.Budget == nil &&
		p.StartDate == nil && p.EndDate == nil && p.BusinessName == nil
}

// Apply copies every set field onto c.
func (p CampaignPatch) Apply(c *Campaign) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Requirements != nil {
		c.Requirements = *p.Requirements
	}
	if p.Goal != nil {
		c.Goal = *p.Goal
	}
	if p.EngagementTier != nil {
		c.EngagementTier = *p.EngagementTier
	}
	if p.Budget != nil {
		c.Budget = *p.Budget
	}
	if p.StartDate != nil {
		t := *p.StartDate
		c.StartDate = &t
	}
	if p.EndDate != nil {
		t := *p.EndDate
		c.EndDate = &t
	}
	if p.BusinessName != nil {
		c.BusinessName = *p.BusinessName
	}
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to CampaignStatus) bool {
	switch from {
	case StatusDraft:
		return to == StatusPendingApproval
	case StatusPendingApproval:
		return to == StatusActive
	case StatusActive:
		return to == StatusOffered
	case StatusOffered:
		return to == StatusAccepted || to == StatusRejected
	case StatusAccepted:
		return to == StatusCompleted
	default:
		return false
	}
}

// Transition moves c to the target status and stamps the matching timestamp once.
func (c *Campaign) Transition(to CampaignStatus, now time.Time) error {
	if !CanTransition(c.Status, to) {
		return appErrors.NewInvalidState("transition", "campaign %s cannot move from %s to %s", c.ID, c.Status, to)
	}
	at := now.UTC()
	c.Status = to
	c.UpdatedAt = &at
	switch to {
	case StatusActive:
		stampOnce(&c.ApprovedAt, at)
	case StatusOffered:
		stampOnce(&c.AssignedAt, at)
	case StatusAccepted:
		stampOnce(&c.AcceptedAt, at)
	case StatusRejected:
		stampOnce(&c.RejectedAt, at)
	case StatusCompleted:
		stampOnce(&c.CompletedAt, at)
	}
	return nil
}

func stampOnce(field **time.Time, at time.Time) {
	if *field == nil {
		t := at
		*field = &t
	}
}

// FindApplicant returns the index of the applicant with the given id, or -1.
func (c *Campaign) FindApplicant(id string) int {
	for i := range c.Applicants {
		if c.Applicants[i].ID == id {
			return i
		}
	}
	return -1
}

// CheckInvariants validates the assignee/status pairing and applicant uniqueness.
func (c *Campaign) CheckInvariants() error {
	if !c.Status.Valid() {
		return fmt.Errorf("campaign %s has unknown status %q", c.ID, c.Status)
	}
	if c.Status.Assigned() && c.AssignedTo == nil {
		return fmt.Errorf("campaign %s is %s without an assignee", c.ID, c.Status)
	}
	if !c.Status.Assigned() && c.AssignedTo != nil {
		return fmt.Errorf("campaign %s is %s but assigned to %s", c.ID, c.Status, c.AssignedTo.ID)
	}
	seen := make(map[string]bool, len(c.Applicants))
	for _, a := range c.Applicants {
		if seen[a.ID] {
			return fmt.Errorf("campaign %s has duplicate applicant %s", c.ID, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// Clone returns a deep copy so stores never share slices or pointers with callers.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	out := *c
	if c.Applicants != nil {
		out.Applicants = make([]Applicant, len(c.Applicants))
		copy(out.Applicants, c.Applicants)
	}
	if c.AssignedTo != nil {
		ref := *c.AssignedTo
		out.AssignedTo = &ref
	}
	out.StartDate = cloneTime(c.StartDate)
	out.EndDate = cloneTime(c.EndDate)
	out.ApprovedAt = cloneTime(c.ApprovedAt)
	out.AssignedAt = cloneTime(c.AssignedAt)
	out.AcceptedAt = cloneTime(c.AcceptedAt)
	out.RejectedAt = cloneTime(c.RejectedAt)
	out.CompletedAt = cloneTime(c.CompletedAt)
	out.UpdatedAt = cloneTime(c.UpdatedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// CampaignFilter narrows campaign queries; empty fields match everything.
type CampaignFilter struct {
	BusinessID   string
	InfluencerID string
	Status       CampaignStatus
}

func (f CampaignFilter) Match(c *Campaign) bool {
	if f.BusinessID != "" && c.BusinessID != f.BusinessID {
		return false
	}
	if f.InfluencerID != "" && (c.AssignedTo == nil || c.AssignedTo.ID != f.InfluencerID) {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}
