package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/unclebandit/jetmatch-backend/internal/db"
	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/model"
)

// MutateFunc validates the latest campaign state and mutates it in place.
// Returning an error aborts the write.
type MutateFunc func(c *model.Campaign) error

// CompleteFunc mutates the campaign and returns the payment to insert in the
// same transaction.
type CompleteFunc func(c *model.Campaign) (*model.Payment, error)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	List(ctx context.Context, filter model.CampaignFilter, offset, limit int) ([]*model.Campaign, int, error)
	Update(ctx context.Context, id string, patch model.CampaignPatch) (*model.Campaign, error)
	Delete(ctx context.Context, id string) error

	// Transactional read-modify-write
	Mutate(ctx context.Context, id string, fn MutateFunc) (*model.Campaign, error)
	Complete(ctx context.Context, id string, fn CompleteFunc) (*model.Campaign, *model.Payment, error)
}

type CampaignRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

const campaignColumns = `id, title, description, requirements, goal, engagement_tier, budget,
	start_date, end_date, business_id, business_name, status, applicants, assigned_to,
	created_at, approved_at, assigned_at, accepted_at, rejected_at, completed_at, updated_at`

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	args, err := r.campaignArgs(c)
	if err != nil {
		return err
	}
	query := r.Dialect.Rebind(`
		INSERT INTO campaigns (` + campaignColumns + `, assigned_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewConflict("create campaign", "campaign %s already exists", c.ID)
		}
		return appErrors.NewExternal("create campaign", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	query := r.Dialect.Rebind(`SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ?`)
	return r.getOne(r.DB.QueryRowContext(ctx, query, id), id)
}

func (r *CampaignRepository) List(ctx context.Context, filter model.CampaignFilter, offset, limit int) ([]*model.Campaign, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if filter.BusinessID != "" {
		where += " AND business_id = ?"
		args = append(args, filter.BusinessID)
	}
	if filter.InfluencerID != "" {
		where += " AND assigned_id = ?"
		args = append(args, filter.InfluencerID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	// Count total
	var total int
	countQuery := r.Dialect.Rebind(`SELECT COUNT(*) FROM campaigns` + where)
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, appErrors.NewExternal("count campaigns", err)
	}

	query := r.Dialect.Rebind(`SELECT ` + campaignColumns + ` FROM campaigns` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, appErrors.NewExternal("list campaigns", err)
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, appErrors.NewExternal("list campaigns", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.NewExternal("list campaigns", err)
	}
	return campaigns, total, nil
}

// Update writes only the editable columns named by the patch. It never touches
// status, applicants or the assignee.
func (r *CampaignRepository) Update(ctx context.Context, id string, patch model.CampaignPatch) (*model.Campaign, error) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Requirements != nil {
		add("requirements", *patch.Requirements)
	}
	if patch.Goal != nil {
		add("goal", *patch.Goal)
	}
	if patch.EngagementTier != nil {
		add("engagement_tier", *patch.EngagementTier)
	}
	if patch.Budget != nil {
		add("budget", *patch.Budget)
	}
	if patch.StartDate != nil {
		add("start_date", r.Dialect.TimeArg(patch.StartDate))
	}
	if patch.EndDate != nil {
		add("end_date", r.Dialect.TimeArg(patch.EndDate))
	}
	if patch.BusinessName != nil {
		add("business_name", *patch.BusinessName)
	}
	now := time.Now().UTC()
	add("updated_at", r.Dialect.TimeArg(&now))

	query := r.Dialect.Rebind(`UPDATE campaigns SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := r.DB.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return nil, appErrors.NewExternal("update campaign", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return r.GetByID(ctx, id)
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM campaigns WHERE id = ?`), id)
	if err != nil {
		return appErrors.NewExternal("delete campaign", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return appErrors.NewExternal("delete campaign", err)
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

// ====================== Transactions ======================

// Mutate locks the campaign row, hands the latest state to fn and writes the
// result back in the same transaction.
func (r *CampaignRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*model.Campaign, error) {
	c, _, err := r.inTx(ctx, id, func(tx *sql.Tx, c *model.Campaign) (*model.Payment, error) {
		return nil, fn(c)
	})
	return c, err
}

// Complete is Mutate plus a payment insert; both commit or neither does.
func (r *CampaignRepository) Complete(ctx context.Context, id string, fn CompleteFunc) (*model.Campaign, *model.Payment, error) {
	return r.inTx(ctx, id, func(tx *sql.Tx, c *model.Campaign) (*model.Payment, error) {
		p, err := fn(c)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("complete campaign %s: no payment produced", id)
		}
		if err := insertPayment(ctx, tx, r.Dialect, p); err != nil {
			return nil, err
		}
		return p, nil
	})
}

func (r *CampaignRepository) inTx(ctx context.Context, id string, fn func(tx *sql.Tx, c *model.Campaign) (*model.Payment, error)) (*model.Campaign, *model.Payment, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, appErrors.NewExternal("begin tx", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Println("⚠️ rollback failed:", rbErr)
		}
	}()

	query := r.Dialect.Rebind(`SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ?` + r.Dialect.ForUpdate())
	c, err := r.getOne(tx.QueryRowContext(ctx, query, id), id)
	if err != nil {
		return nil, nil, err
	}

	p, err := fn(tx, c)
	if err != nil {
		return nil, nil, err
	}

	if err := r.writeLifecycle(ctx, tx, c); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, appErrors.NewExternal("commit", err)
	}
	return c, p, nil
}

func (r *CampaignRepository) writeLifecycle(ctx context.Context, tx *sql.Tx, c *model.Campaign) error {
	args, err := r.campaignArgs(c)
	if err != nil {
		return err
	}
	// campaignArgs starts with id; move it to the WHERE clause.
	args = append(args[1:], c.ID)
	query := r.Dialect.Rebind(`
		UPDATE campaigns SET
			title = ?, description = ?, requirements = ?, goal = ?, engagement_tier = ?, budget = ?,
			start_date = ?, end_date = ?, business_id = ?, business_name = ?, status = ?, applicants = ?,
			assigned_to = ?, created_at = ?, approved_at = ?, assigned_at = ?, accepted_at = ?,
			rejected_at = ?, completed_at = ?, updated_at = ?, assigned_id = ?
		WHERE id = ?
	`)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return appErrors.NewExternal("write campaign", err)
	}
	return nil
}

// ====================== Row mapping ======================

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CampaignRepository) getOne(row rowScanner, id string) (*model.Campaign, error) {
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, appErrors.NewExternal("get campaign", err)
	}
	return c, nil
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var (
		c                    model.Campaign
		status               string
		applicants, assigned sql.NullString

		start, end, created, approved, assignedAt db.Time
		accepted, rejected, completed, updated    db.Time
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Requirements, &c.Goal, &c.EngagementTier, &c.Budget,
		&start, &end, &c.BusinessID, &c.BusinessName, &status, &applicants, &assigned,
		&created, &approved, &assignedAt, &accepted, &rejected, &completed, &updated)
	if err != nil {
		return nil, err
	}

	c.Status = model.CampaignStatus(status)
	c.Applicants = []model.Applicant{}
	if applicants.Valid && applicants.String != "" {
		if err := json.Unmarshal([]byte(applicants.String), &c.Applicants); err != nil {
			return nil, fmt.Errorf("decode applicants of %s: %w", c.ID, err)
		}
	}
	if assigned.Valid && assigned.String != "" && assigned.String != "null" {
		var ref model.InfluencerRef
		if err := json.Unmarshal([]byte(assigned.String), &ref); err != nil {
			return nil, fmt.Errorf("decode assignee of %s: %w", c.ID, err)
		}
		c.AssignedTo = &ref
	}

	c.StartDate = start.Ptr()
	c.EndDate = end.Ptr()
	c.CreatedAt = created.Time
	c.ApprovedAt = approved.Ptr()
	c.AssignedAt = assignedAt.Ptr()
	c.AcceptedAt = accepted.Ptr()
	c.RejectedAt = rejected.Ptr()
	c.CompletedAt = completed.Ptr()
	c.UpdatedAt = updated.Ptr()
	return &c, nil
}

// campaignArgs lists values in campaignColumns order followed by assigned_id.
func (r *CampaignRepository) campaignArgs(c *model.Campaign) ([]any, error) {
	applicants := c.Applicants
	if applicants == nil {
		applicants = []model.Applicant{}
	}
	rawApplicants, err := json.Marshal(applicants)
	if err != nil {
		return nil, fmt.Errorf("encode applicants: %w", err)
	}

	var assigned, assignedID any
	if c.AssignedTo != nil {
		raw, err := json.Marshal(c.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("encode assignee: %w", err)
		}
		assigned = string(raw)
		assignedID = c.AssignedTo.ID
	}

	d := r.Dialect
	return []any{
		c.ID, c.Title, c.Description, c.Requirements, c.Goal, c.EngagementTier, c.Budget,
		d.TimeArg(c.StartDate), d.TimeArg(c.EndDate), c.BusinessID, c.BusinessName, string(c.Status),
		string(rawApplicants), assigned,
		d.TimeArg(&c.CreatedAt), d.TimeArg(c.ApprovedAt), d.TimeArg(c.AssignedAt), d.TimeArg(c.AcceptedAt),
		d.TimeArg(c.RejectedAt), d.TimeArg(c.CompletedAt), d.TimeArg(c.UpdatedAt),
		assignedID,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
