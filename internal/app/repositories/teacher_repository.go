package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// TeacherRepository handles teachers and ratings
type TeacherRepository struct {
	db *pgxpool.Pool
}

// NewTeacherRepository creates a new TeacherRepository
func NewTeacherRepository(db *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers, optionally for one school
func (r *TeacherRepository) List(ctx context.Context, schoolID string) ([]*models.Teacher, error) {
	query := psql.Select("id", "school_id", "name", "subject", "created_at").From("teachers").OrderBy("name", "id")
	if schoolID != "" {
		query = query.Where(squirrel.Eq{"school_id": schoolID})
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

	var teachers []*models.Teacher
	for rows.Next() {
		var t models.Teacher
		if err := rows.Scan(&t.ID, &t.SchoolID, &t.Name, &t.Subject, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		teachers = append(teachers, &t)
	}
	return teachers, rows.Err()
}

// GetByID retrieves a teacher by ID
func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	var t models.Teacher
	err := r.db.QueryRow(ctx,
		`SELECT id, school_id, name, subject, created_at FROM teachers WHERE id = $1`, id,
	).Scan(&t.ID, &t.SchoolID, &t.Name, &t.Subject, &t.CreatedAt)
	if err != nil {
		return nil, readError("error retrieving teacher", err, apperrors.NewResourceNotFoundError("teacher not found"))
	}
	return &t, nil
}

// Create inserts a teacher
func (r *TeacherRepository) Create(ctx context.Context, t *models.Teacher) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO teachers (school_id, name, subject) VALUES ($1, $2, $3) RETURNING id, created_at`,
		t.SchoolID, t.Name, t.Subject,
	).Scan(&t.ID, &t.CreatedAt)
	return writeError("error creating teacher", err)
}

// RatingStats returns score sum and count per target
func (r *TeacherRepository) RatingStats(ctx context.Context, targetType string, targetIDs []string) (map[string]models.RatingStats, error) {
	stats := make(map[string]models.RatingStats, len(targetIDs))
	if len(targetIDs) == 0 {
		return stats, nil
	}
	sql, args, err := psql.Select("target_id", "SUM(score)::int", "COUNT(*)").
		From("ratings").
		Where(squirrel.Eq{"target_type": targetType, "target_id": targetIDs}).
		GroupBy("target_id").
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
		var id string
		var s models.RatingStats
		if err := rows.Scan(&id, &s.Sum, &s.Count); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		stats[id] = s
	}
	return stats, rows.Err()
}

// RatingsBy returns raterID's score per target
func (r *TeacherRepository) RatingsBy(ctx context.Context, targetType, raterID string, targetIDs []string) (map[string]int, error) {
	scores := make(map[string]int)
	if len(targetIDs) == 0 || raterID == "" {
		return scores, nil
	}
	sql, args, err := psql.Select("target_id", "score").
		From("ratings").
		Where(squirrel.Eq{"target_type": targetType, "rater_id": raterID, "target_id": targetIDs}).
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
		var id string
		var score int
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		scores[id] = score
	}
	return scores, rows.Err()
}

// UpsertRating writes the rating keyed on (target_type, target_id, rater_id)
func (r *TeacherRepository) UpsertRating(ctx context.Context, rt *models.Rating) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO ratings (target_type, target_id, rater_id, score, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (target_type, target_id, rater_id)
		DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment
		RETURNING id, created_at`,
		rt.TargetType, rt.TargetID, rt.RaterID, rt.Score, rt.Comment,
	).Scan(&rt.ID, &rt.CreatedAt)
	return writeError("error writing rating", err)
}
