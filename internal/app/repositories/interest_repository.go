package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// InterestRepository handles database operations for profile interests
type InterestRepository struct {
	db *pgxpool.Pool
}

// NewInterestRepository creates a new InterestRepository
func NewInterestRepository(db *pgxpool.Pool) *InterestRepository {
	return &InterestRepository{db: db}
}

// ListByProfile returns the tags of one profile
func (r *InterestRepository) ListByProfile(ctx context.Context, profileID string) ([]string, error) {
	byProfile, err := r.ListByProfiles(ctx, []string{profileID})
	if err != nil {
		return nil, err
	}
	return byProfile[profileID], nil
}

// ListByProfiles returns tags keyed by profile ID in one query
func (r *InterestRepository) ListByProfiles(ctx context.Context, profileIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(profileIDs))
	if len(profileIDs) == 0 {
		return result, nil
	}

	sql, args, err := psql.Select("profile_id", "interest_tag").
		From("user_interests").
		Where(squirrel.Eq{"profile_id": profileIDs}).
		OrderBy("created_at", "interest_tag").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var profileID, tag string
		if err := rows.Scan(&profileID, &tag); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		result[profileID] = append(result[profileID], tag)
	}
	return result, rows.Err()
}

// Add attaches a tag to a profile
func (r *InterestRepository) Add(ctx context.Context, profileID, tag string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO user_interests (profile_id, interest_tag) VALUES ($1, $2)`, profileID, tag)
	return writeError("error adding interest", err)
}

// Remove detaches a tag from a profile
func (r *InterestRepository) Remove(ctx context.Context, profileID, tag string) error {
	tagResult, err := r.db.Exec(ctx, `DELETE FROM user_interests WHERE profile_id = $1 AND interest_tag = $2`, profileID, tag)
	if err != nil {
		return fmt.Errorf("error removing interest: %w", err)
	}
	if tagResult.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("interest not found")
	}
	return nil
}
