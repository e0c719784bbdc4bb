package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/db"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// ChallengeRepository handles challenges, school progress and rivalries
type ChallengeRepository struct {
	db *pgxpool.Pool
}

// NewChallengeRepository creates a new ChallengeRepository
func NewChallengeRepository(db *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

const challengeColumns = `id, title, description, max_points, start_date, end_date, created_at`

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	var c models.Challenge
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.MaxPoints, &c.StartDate, &c.EndDate, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChallenges returns all challenges, newest first
func (r *ChallengeRepository) ListChallenges(ctx context.Context) ([]*models.Challenge, error) {
	rows, err := r.db.Query(ctx, `SELECT `+challengeColumns+` FROM challenges ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var challenges []*models.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// GetChallenge retrieves a challenge by ID
func (r *ChallengeRepository) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	c, err := scanChallenge(r.db.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if err != nil {
		return nil, readError("error retrieving challenge", err, apperrors.NewResourceNotFoundError("challenge not found"))
	}
	return c, nil
}

// CreateChallenge inserts a challenge
func (r *ChallengeRepository) CreateChallenge(ctx context.Context, c *models.Challenge) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO challenges (title, description, max_points, start_date, end_date)
		VALUES ($1, $2, $3, COALESCE($4, now()), $5)
		RETURNING id, start_date, created_at`,
		c.Title, c.Description, c.MaxPoints, nullTime(c.StartDate), c.EndDate,
	).Scan(&c.ID, &c.StartDate, &c.CreatedAt)
	return writeError("error creating challenge", err)
}

// ListProgress returns progress rows joined with school and challenge, in insertion order
func (r *ChallengeRepository) ListProgress(ctx context.Context, schoolID string) ([]*models.SchoolChallengeEntry, error) {
	query := psql.Select(
		"sc.id", "sc.school_id", "sc.challenge_id", "sc.current_points", "sc.updated_at", "s.name",
		"c.id", "c.title", "c.description", "c.max_points", "c.start_date", "c.end_date", "c.created_at",
	).
		From("school_challenges sc").
		LeftJoin("schools s ON s.id = sc.school_id").
		Join("challenges c ON c.id = sc.challenge_id").
		OrderBy("sc.created_at", "sc.id")
	if schoolID != "" {
		query = query.Where(squirrel.Eq{"sc.school_id": schoolID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var entries []*models.SchoolChallengeEntry
	for rows.Next() {
		var e models.SchoolChallengeEntry
		var c models.Challenge
		if err := rows.Scan(
			&e.ID, &e.SchoolID, &e.ChallengeID, &e.CurrentPoints, &e.UpdatedAt, &e.SchoolName,
			&c.ID, &c.Title, &c.Description, &c.MaxPoints, &c.StartDate, &c.EndDate, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		e.Challenge = &c
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// ListRivalries returns rivalries touching schoolID, or all when it is empty
func (r *ChallengeRepository) ListRivalries(ctx context.Context, schoolID string) ([]*models.RivalryEntry, error) {
	query := psql.Select("r.id", "r.school_a_id", "r.school_b_id", "r.created_at", "sa.name", "sb.name").
		From("rivalries r").
		LeftJoin("schools sa ON sa.id = r.school_a_id").
		LeftJoin("schools sb ON sb.id = r.school_b_id").
		OrderBy("r.created_at", "r.id")
	if schoolID != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"r.school_a_id": schoolID},
			squirrel.Eq{"r.school_b_id": schoolID},
		})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var rivalries []*models.RivalryEntry
	for rows.Next() {
		var e models.RivalryEntry
		if err := rows.Scan(&e.ID, &e.SchoolAID, &e.SchoolBID, &e.CreatedAt, &e.SchoolAName, &e.SchoolBName); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		rivalries = append(rivalries, &e)
	}
	return rivalries, rows.Err()
}

// CreateRivalry inserts a rivalry
func (r *ChallengeRepository) CreateRivalry(ctx context.Context, rv *models.Rivalry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO rivalries (school_a_id, school_b_id) VALUES ($1, $2)
		RETURNING id, created_at`,
		rv.SchoolAID, rv.SchoolBID,
	).Scan(&rv.ID, &rv.CreatedAt)
	return writeError("error creating rivalry", err)
}

// PointTotals sums current_points per school in a single aggregate query
func (r *ChallengeRepository) PointTotals(ctx context.Context, schoolIDs []string) (map[string]int, error) {
	totals := make(map[string]int, len(schoolIDs))
	if len(schoolIDs) == 0 {
		return totals, nil
	}

	sql, args, err := psql.Select("school_id", "COALESCE(SUM(current_points), 0)::int").
		From("school_challenges").
		Where(squirrel.Eq{"school_id": schoolIDs}).
		GroupBy("school_id").
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
		var schoolID string
		var total int
		if err := rows.Scan(&schoolID, &total); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		totals[schoolID] = total
	}
	return totals, rows.Err()
}

// AddPoints upserts progress for the pair, capped at the challenge's max_points
func (r *ChallengeRepository) AddPoints(ctx context.Context, schoolID, challengeID string, points int) (*models.SchoolChallenge, error) {
	sc := &models.SchoolChallenge{SchoolID: schoolID, ChallengeID: challengeID}
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var maxPoints int
		err := tx.QueryRow(ctx, `SELECT max_points FROM challenges WHERE id = $1`, challengeID).Scan(&maxPoints)
		if err != nil {
			return readError("error retrieving challenge", err, apperrors.NewResourceNotFoundError("challenge not found"))
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO school_challenges (school_id, challenge_id, current_points)
			VALUES ($1, $2, LEAST(GREATEST($3::int, 0), $4::int))
			ON CONFLICT (school_id, challenge_id) DO UPDATE
			SET current_points = LEAST(GREATEST(school_challenges.current_points + $3::int, 0), $4::int),
			    updated_at = now()
			RETURNING id, current_points, updated_at`,
			schoolID, challengeID, points, maxPoints,
		).Scan(&sc.ID, &sc.CurrentPoints, &sc.UpdatedAt)
		return writeError("error awarding points", err)
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}
