package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unclebandit/jetmatch-backend/internal/db"
	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/model"
)

// PaymentRepositoryInterface covers reads and the billing status update.
// Payments are only ever created through CampaignRepositoryInterface.Complete.
type PaymentRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*model.Payment, error)
	UpdateStatus(ctx context.Context, id string, status model.PaymentStatus) error
}

type PaymentRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

const paymentColumns = `id, campaign_id, influencer_id, amount, status, created_at`

// insertPayment runs inside the completion transaction.
func insertPayment(ctx context.Context, tx *sql.Tx, d db.Dialect, p *model.Payment) error {
	query := d.Rebind(`INSERT INTO payments (` + paymentColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := tx.ExecContext(ctx, query,
		p.ID, p.CampaignID, p.InfluencerID, p.Amount, string(p.Status), d.TimeArg(&p.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewConflict("create payment", "campaign %s already has a payment", p.CampaignID)
		}
		return appErrors.NewExternal("create payment", err)
	}
	return nil
}

// GetByID fetches a payment by its ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	query := r.Dialect.Rebind(`SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`)
	p, err := scanPayment(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewPaymentNotFound(id)
		}
		return nil, appErrors.NewExternal("get payment", err)
	}
	return p, nil
}

func (r *PaymentRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*model.Payment, error) {
	query := r.Dialect.Rebind(`SELECT ` + paymentColumns + ` FROM payments WHERE campaign_id = ? ORDER BY created_at DESC`)
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, appErrors.NewExternal("list payments", err)
	}
	defer rows.Close()

	payments := []*model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, appErrors.NewExternal("list payments", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewExternal("list payments", err)
	}
	return payments, nil
}

// UpdateStatus is used by the external billing process.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	if !status.Valid() {
		return appErrors.NewValidation("update payment", "unknown payment status %q", status)
	}
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`UPDATE payments SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return appErrors.NewExternal("update payment", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewPaymentNotFound(id)
	}
	return nil
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	var (
		p       model.Payment
		status  string
		created db.Time
	)
	if err := row.Scan(&p.ID, &p.CampaignID, &p.InfluencerID, &p.Amount, &status, &created); err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatus(status)
	p.CreatedAt = created.Time
	return &p, nil
}

var _ PaymentRepositoryInterface = (*PaymentRepository)(nil)
