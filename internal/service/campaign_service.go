// internal/service/campaign_service.go
package service

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/queue"
	"github.com/unclebandit/jetmatch-backend/internal/repository"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleBusiness   Role = "business"
	RoleInfluencer Role = "influencer"
)

// Actor is whoever performs an operation. Authentication happens upstream.
type Actor struct {
	Role  Role
	ID    string
	Name  string
	Email string
}

type CreateCampaignInput struct {
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Requirements   string               `json:"requirements"`
	Goal           string               `json:"goal"`
	EngagementTier string               `json:"engagement_tier"`
	Budget         *float64             `json:"budget"`
	StartDate      *time.Time           `json:"start_date"`
	EndDate        *time.Time           `json:"end_date"`
	BusinessID     string               `json:"business_id"`
	BusinessName   string               `json:"business_name"`
	Status         model.CampaignStatus `json:"status"`
}

type CampaignService struct {
	CampaignRepo   repository.CampaignRepositoryInterface
	PaymentRepo    repository.PaymentRepositoryInterface
	InfluencerRepo repository.InfluencerRepositoryInterface
	Queue          queue.Queue

	// DefaultApplicantStatus is given to every new applicant; empty means pending.
	DefaultApplicantStatus model.ApplicantStatus

	Now   func() time.Time
	NewID func() string
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CampaignService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *CampaignService) applicantStatus() model.ApplicantStatus {
	if s.DefaultApplicantStatus.Valid() {
		return s.DefaultApplicantStatus
	}
	return model.ApplicantPending
}

// ====================== Create ======================

func (s *CampaignService) CreateCampaign(ctx context.Context, actor Actor, in CreateCampaignInput) (*model.Campaign, error) {
	const op = "create campaign"

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, appErrors.NewValidation(op, "title is required")
	}
	if in.Budget == nil {
		return nil, appErrors.NewValidation(op, "budget is required")
	}
	if err := checkBudget(op, *in.Budget); err != nil {
		return nil, err
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, appErrors.NewValidation(op, "end_date is before start_date")
	}

	now := s.now()
	c := &model.Campaign{
		ID:             s.newID(),
		Title:          title,
		Description:    in.Description,
		Requirements:   in.Requirements,
		Goal:           in.Goal,
		EngagementTier: in.EngagementTier,
		Budget:         *in.Budget,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		BusinessID:     in.BusinessID,
		BusinessName:   in.BusinessName,
		Applicants:     []model.Applicant{},
		CreatedAt:      now,
	}

	switch actor.Role {
	case RoleBusiness:
		c.Status = model.StatusPendingApproval
		if c.BusinessID == "" {
			c.BusinessID = actor.ID
		}
		if c.BusinessName == "" {
			c.BusinessName = actor.Name
		}
	case RoleAdmin:
		switch in.Status {
		case "":
			c.Status = model.StatusDraft
		case model.StatusDraft, model.StatusPendingApproval:
			c.Status = in.Status
		case model.StatusActive:
			c.Status = in.Status
			c.ApprovedAt = &now
		default:
			return nil, appErrors.NewValidation(op, "campaigns cannot be created in status %q", in.Status)
		}
	default:
		return nil, appErrors.NewValidation(op, "role %q cannot create campaigns", actor.Role)
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Printf("✅ Campaign %s created by %s (%s)\n", c.ID, actor.Role, c.Status)
	s.publish(model.EventCampaignCreated, c, nil)
	return c, nil
}

func checkBudget(op string, budget float64) error {
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget < 0 {
		return appErrors.NewValidation(op, "budget must be a non-negative number")
	}
	return nil
}

// ====================== Transitions ======================

// SubmitForApproval moves a draft into the approval queue.
func (s *CampaignService) SubmitForApproval(ctx context.Context, id string) (*model.Campaign, error) {
	return s.transition(ctx, id, model.StatusPendingApproval, model.EventCampaignSubmitted)
}

// ApproveCampaign makes a pending campaign visible to influencers.
func (s *CampaignService) ApproveCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return s.transition(ctx, id, model.StatusActive, model.EventCampaignApproved)
}

// AcceptCampaign is the assigned influencer taking the offer.
func (s *CampaignService) AcceptCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return s.transition(ctx, id, model.StatusAccepted, model.EventCampaignAccepted)
}

// RejectCampaign is the assigned influencer declining the offer. The assignee is kept.
func (s *CampaignService) RejectCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return s.transition(ctx, id, model.StatusRejected, model.EventCampaignRejected)
}

func (s *CampaignService) transition(ctx context.Context, id string, to model.CampaignStatus, event string) (*model.Campaign, error) {
	now := s.now()
	c, err := s.CampaignRepo.Mutate(ctx, id, func(c *model.Campaign) error {
		return c.Transition(to, now)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Campaign %s is now %s\n", c.ID, c.Status)
	s.publish(event, c, nil)
	return c, nil
}

// ApplyToCampaign records interest from an influencer. Applying twice returns
// the campaign unchanged.
func (s *CampaignService) ApplyToCampaign(ctx context.Context, id string, influencer model.InfluencerRef) (*model.Campaign, error) {
	const op = "apply to campaign"
	if strings.TrimSpace(influencer.ID) == "" {
		return nil, appErrors.NewValidation(op, "influencer id is required")
	}
	ref, err := s.resolveInfluencer(ctx, influencer)
	if err != nil {
		return nil, err
	}

	now := s.now()
	applied := false
	c, err := s.CampaignRepo.Mutate(ctx, id, func(c *model.Campaign) error {
		if c.Status != model.StatusActive {
			return appErrors.NewInvalidState(op, "campaign %s is %s, applications need an active campaign", c.ID, c.Status)
		}
		if c.FindApplicant(ref.ID) >= 0 {
			return nil
		}
		c.Applicants = append(c.Applicants, model.Applicant{
			ID:        ref.ID,
			Name:      ref.Name,
			Email:     ref.Email,
			AppliedAt: now,
			Status:    s.applicantStatus(),
		})
		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if applied {
		s.publish(model.EventCampaignApplied, c, &ref)
	}
	return c, nil
}

// AssignCampaign offers an active campaign directly to an influencer.
func (s *CampaignService) AssignCampaign(ctx context.Context, id, influencerID, influencerName string) (*model.Campaign, error) {
	const op = "assign campaign"
	if strings.TrimSpace(influencerID) == "" {
		return nil, appErrors.NewValidation(op, "influencer id is required")
	}
	ref, err := s.resolveInfluencer(ctx, model.InfluencerRef{ID: influencerID, Name: influencerName})
	if err != nil {
		return nil, err
	}

	now := s.now()
	c, err := s.CampaignRepo.Mutate(ctx, id, func(c *model.Campaign) error {
		if c.AssignedTo != nil {
			return appErrors.NewConflict(op, "campaign %s is already assigned to %s", c.ID, c.AssignedTo.ID)
		}
		if c.Status != model.StatusActive {
			return appErrors.NewInvalidState(op, "campaign %s is %s, only active campaigns can be assigned", c.ID, c.Status)
		}
		assignee := ref
		c.AssignedTo = &assignee
		return c.Transition(model.StatusOffered, now)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Campaign %s offered to %s\n", c.ID, ref.ID)
	s.publish(model.EventCampaignOffered, c, nil)
	return c, nil
}

// AcceptApplicant lets the business pick one of its applicants. The check and
// the write happen in one read-modify-write.
func (s *CampaignService) AcceptApplicant(ctx context.Context, id, applicantID string) (*model.Campaign, error) {
	const op = "accept applicant"
	if strings.TrimSpace(applicantID) == "" {
		return nil, appErrors.NewValidation(op, "applicant id is required")
	}
	known, err := s.lookupInfluencer(ctx, applicantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c, err := s.CampaignRepo.Mutate(ctx, id, func(c *model.Campaign) error {
		idx := c.FindApplicant(applicantID)
		if idx < 0 {
			return appErrors.NewApplicantNotFound(c.ID, applicantID)
		}
		if c.AssignedTo != nil {
			return appErrors.NewConflict(op, "campaign %s is already assigned to %s", c.ID, c.AssignedTo.ID)
		}
		if c.Status != model.StatusActive {
			return appErrors.NewInvalidState(op, "campaign %s is %s, only active campaigns can accept applicants", c.ID, c.Status)
		}

		for i := range c.Applicants {
			switch {
			case i == idx:
				c.Applicants[i].Status = model.ApplicantAccepted
			case c.Applicants[i].Status == model.ApplicantPending:
				c.Applicants[i].Status = model.ApplicantRejected
			}
		}
		applicant := &c.Applicants[idx]
		ref := model.InfluencerRef{ID: applicant.ID, Name: applicant.Name, Email: applicant.Email}
		if known != nil {
			ref = mergeRef(ref, known.Ref())
		}
		c.AssignedTo = &ref
		return c.Transition(model.StatusOffered, now)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Campaign %s offered to applicant %s\n", c.ID, applicantID)
	s.publish(model.EventCampaignOffered, c, nil)
	return c, nil
}

// CompleteCampaign closes an accepted campaign and records its payment in the
// same transaction.
func (s *CampaignService) CompleteCampaign(ctx context.Context, id string, data model.PaymentData) (*model.Campaign, *model.Payment, error) {
	const op = "complete campaign"
	if data.Amount != nil && checkBudget(op, *data.Amount) != nil {
		return nil, nil, appErrors.NewValidation(op, "payment amount must be a non-negative number")
	}
	status := data.Status
	if status == "" {
		status = model.PaymentPending
	}
	if !status.Valid() {
		return nil, nil, appErrors.NewValidation(op, "unknown payment status %q", data.Status)
	}

	now := s.now()
	paymentID := s.newID()
	c, p, err := s.CampaignRepo.Complete(ctx, id, func(c *model.Campaign) (*model.Payment, error) {
		if err := c.Transition(model.StatusCompleted, now); err != nil {
			return nil, err
		}
		if c.AssignedTo == nil {
			return nil, appErrors.NewInvalidState(op, "campaign %s has no assignee to pay", c.ID)
		}
		amount := c.Budget
		if data.Amount != nil {
			amount = *data.Amount
		}
		return &model.Payment{
			ID:           paymentID,
			CampaignID:   c.ID,
			InfluencerID: c.AssignedTo.ID,
			Amount:       amount,
			Status:       status,
			CreatedAt:    now,
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("✅ Campaign %s completed, payment %s %.2f (%s)\n", c.ID, p.ID, p.Amount, p.Status)
	s.publish(model.EventCampaignCompleted, c, nil, func(e *model.CampaignEvent) {
		e.PaymentID = p.ID
		e.Amount = p.Amount
	})
	return c, p, nil
}

// ====================== Edit / Delete ======================

// UpdateCampaign writes editable fields only; lifecycle fields change through transitions.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, patch model.CampaignPatch) (*model.Campaign, error) {
	const op = "update campaign"
	if patch.Empty() {
		return nil, appErrors.NewValidation(op, "nothing to update")
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, appErrors.NewValidation(op, "title cannot be blank")
		}
		patch.Title = &title
	}
	if patch.Budget != nil {
		if err := checkBudget(op, *patch.Budget); err != nil {
			return nil, err
		}
	}
	if patch.StartDate != nil || patch.EndDate != nil {
		start, end := patch.StartDate, patch.EndDate
		if start == nil || end == nil {
			current, err := s.CampaignRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if start == nil {
				start = current.StartDate
			}
			if end == nil {
				end = current.EndDate
			}
		}
		if start != nil && end != nil && end.Before(*start) {
			return nil, appErrors.NewValidation(op, "end_date is before start_date")
		}
	}
	return s.CampaignRepo.Update(ctx, id, patch)
}

// DeleteCampaign removes the campaign. Its payments are kept for billing.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.CampaignRepo.Delete(ctx, id); err != nil {
		return err
	}
	log.Println("🗑️ Campaign deleted:", id)
	return nil
}

// ====================== Queries ======================

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// ListCampaigns fetches campaigns with pagination, newest first
func (s *CampaignService) ListCampaigns(ctx context.Context, filter model.CampaignFilter, page, pageSize int) ([]model.Campaign, map[string]int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.NewValidation("list campaigns", "unknown status %q", filter.Status)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	// Keep (page-1)*pageSize from overflowing on absurd page numbers.
	if maxPage := math.MaxInt / pageSize; page > maxPage {
		page = maxPage
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.List(ctx, filter, offset, pageSize)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) ListPayments(ctx context.Context, campaignID string) ([]*model.Payment, error) {
	return s.PaymentRepo.ListByCampaign(ctx, campaignID)
}

// UpdatePaymentStatus is called by billing once money moves.
func (s *CampaignService) UpdatePaymentStatus(ctx context.Context, paymentID string, status model.PaymentStatus) (*model.Payment, error) {
	if err := s.PaymentRepo.UpdateStatus(ctx, paymentID, status); err != nil {
		return nil, err
	}
	return s.PaymentRepo.GetByID(ctx, paymentID)
}

// ====================== Helpers ======================

// lookupInfluencer returns the directory entry, or nil when the directory is
// absent or does not know the id.
func (s *CampaignService) lookupInfluencer(ctx context.Context, id string) (*model.Influencer, error) {
	if s.InfluencerRepo == nil {
		return nil, nil
	}
	inf, err := s.InfluencerRepo.GetByID(ctx, id)
	if appErrors.Is(err, appErrors.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inf, nil
}

func (s *CampaignService) resolveInfluencer(ctx context.Context, ref model.InfluencerRef) (model.InfluencerRef, error) {
	known, err := s.lookupInfluencer(ctx, ref.ID)
	if err != nil || known == nil {
		return ref, err
	}
	return mergeRef(ref, known.Ref()), nil
}

// mergeRef fills blanks in ref from the directory entry.
func mergeRef(ref, known model.InfluencerRef) model.InfluencerRef {
	if ref.Name == "" {
		ref.Name = known.Name
	}
	if ref.Email == "" {
		ref.Email = known.Email
	}
	if ref.ProfilePicture == "" {
		ref.ProfilePicture = known.ProfilePicture
	}
	return ref
}

// publish is fire-and-forget: a failed publish is logged and never fails the operation.
func (s *CampaignService) publish(eventType string, c *model.Campaign, influencer *model.InfluencerRef, extra ...func(*model.CampaignEvent)) {
	if s.Queue == nil {
		return
	}
	e := model.CampaignEvent{
		Type:         eventType,
		CampaignID:   c.ID,
		Title:        c.Title,
		Status:       c.Status,
		BusinessID:   c.BusinessID,
		BusinessName: c.BusinessName,
		At:           s.now(),
	}
	if influencer == nil {
		influencer = c.AssignedTo
	}
	if influencer != nil {
		e.InfluencerID = influencer.ID
		e.Influencer = influencer.Name
	}
	for _, fn := range extra {
		fn(&e)
	}
	if err := s.Queue.Publish(queue.TopicCampaignEvents, e); err != nil {
		log.Println("⚠️ failed to publish", eventType, "for campaign", c.ID+":", err)
	}
}
