package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unclebandit/jetmatch-backend/internal/db"
	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/model"
)

// InfluencerRepositoryInterface defines the directory lookups used by the services
type InfluencerRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Influencer, error)
	GetByHandle(ctx context.Context, handle string) (*model.Influencer, error)
	ListAll(ctx context.Context) ([]model.Influencer, error)
	Upsert(ctx context.Context, inf *model.Influencer) error
}

// InfluencerRepository is the concrete implementation
type InfluencerRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

const influencerColumns = `id, name, email, profile_picture, handle, created_at`

// GetByID fetches an influencer by ID
func (r *InfluencerRepository) GetByID(ctx context.Context, id string) (*model.Influencer, error) {
	query := r.Dialect.Rebind(`SELECT ` + influencerColumns + ` FROM influencers WHERE id = ?`)
	return r.getOne(r.DB.QueryRowContext(ctx, query, id), id)
}

func (r *InfluencerRepository) GetByHandle(ctx context.Context, handle string) (*model.Influencer, error) {
	query := r.Dialect.Rebind(`SELECT ` + influencerColumns + ` FROM influencers WHERE handle = ?`)
	return r.getOne(r.DB.QueryRowContext(ctx, query, handle), handle)
}

// ListAll fetches every influencer ordered by name
func (r *InfluencerRepository) ListAll(ctx context.Context) ([]model.Influencer, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+influencerColumns+` FROM influencers ORDER BY name`)
	if err != nil {
		return nil, appErrors.NewExternal("list influencers", err)
	}
	defer rows.Close()

	influencers := []model.Influencer{}
	for rows.Next() {
		inf, err := scanInfluencer(rows)
		if err != nil {
			return nil, appErrors.NewExternal("list influencers", err)
		}
		influencers = append(influencers, *inf)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewExternal("list influencers", err)
	}
	return influencers, nil
}

// Upsert inserts the influencer or refreshes its profile fields.
func (r *InfluencerRepository) Upsert(ctx context.Context, inf *model.Influencer) error {
	var handle any
	if inf.Handle != "" {
		handle = inf.Handle
	}
	query := r.Dialect.Rebind(`
		INSERT INTO influencers (` + influencerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			profile_picture = excluded.profile_picture,
			handle = excluded.handle
	`)
	_, err := r.DB.ExecContext(ctx, query,
		inf.ID, inf.Name, inf.Email, inf.ProfilePicture, handle, r.Dialect.TimeArg(&inf.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewConflict("upsert influencer", "handle %s is taken", inf.Handle)
		}
		return appErrors.NewExternal("upsert influencer", err)
	}
	return nil
}

func (r *InfluencerRepository) getOne(row rowScanner, ref string) (*model.Influencer, error) {
	inf, err := scanInfluencer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewInfluencerNotFound(ref)
		}
		return nil, appErrors.NewExternal("get influencer", err)
	}
	return inf, nil
}

func scanInfluencer(row rowScanner) (*model.Influencer, error) {
	var (
		inf     model.Influencer
		handle  sql.NullString
		created db.Time
	)
	if err := row.Scan(&inf.ID, &inf.Name, &inf.Email, &inf.ProfilePicture, &handle, &created); err != nil {
		return nil, err
	}
	inf.Handle = handle.String
	inf.CreatedAt = created.Time
	return &inf, nil
}

var _ InfluencerRepositoryInterface = (*InfluencerRepository)(nil)
