package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/dberrors"
)

var profileColumns = []string{
	"id", "user_id", "username", "display_name", "school_id", "grade_level",
	"reputation_points", "avatar_url", "bio", "created_at", "updated_at",
}

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Username, &p.DisplayName, &p.SchoolID, &p.GradeLevel,
		&p.ReputationPoints, &p.AvatarURL, &p.Bio, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Profile, error) {
	sql, args, err := psql.Select(profileColumns...).From("profiles").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	p, err := scanProfile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, readError("error retrieving profile", err, apperrors.ErrProfileNotFound)
	}
	return p, nil
}

func (r *ProfileRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Profile, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUserID resolves the profile owned by an auth user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return r.getOne(ctx, squirrel.Eq{"user_id": userID})
}

// ListByIDs retrieves the profiles with the given IDs in username order
func (r *ProfileRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, psql.Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("username"))
}

// ListBySchool retrieves schoolmates of excludeID, capped at limit
func (r *ProfileRepository) ListBySchool(ctx context.Context, schoolID, excludeID string, limit int) ([]*models.Profile, error) {
	query := psql.Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"school_id": schoolID}).
		OrderBy("created_at", "id").
		Limit(uint64(limit))
	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"id": excludeID})
	}
	return r.list(ctx, query)
}

// Update writes the editable profile fields
func (r *ProfileRepository) Update(ctx context.Context, p *models.Profile) error {
	sql, args, err := psql.Update("profiles").
		Set("display_name", p.DisplayName).
		Set("school_id", p.SchoolID).
		Set("grade_level", p.GradeLevel).
		Set("avatar_url", p.AvatarURL).
		Set("bio", p.Bio).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": p.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.UpdatedAt); err != nil {
		if dberrors.IsNoRows(err) {
			return apperrors.ErrProfileNotFound
		}
		return writeError("error updating profile", err)
	}
	return nil
}
