package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// SchoolRepository handles database operations for schools
type SchoolRepository struct {
	db *pgxpool.Pool
}

// NewSchoolRepository creates a new SchoolRepository
func NewSchoolRepository(db *pgxpool.Pool) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// List returns all schools by name
func (r *SchoolRepository) List(ctx context.Context) ([]*models.School, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, domain, location_city, location_country, created_at
		FROM schools ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var schools []*models.School
	for rows.Next() {
		var s models.School
		if err := rows.Scan(&s.ID, &s.Name, &s.Domain, &s.LocationCity, &s.LocationCountry, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		schools = append(schools, &s)
	}
	return schools, rows.Err()
}

// GetByID retrieves a school by ID
func (r *SchoolRepository) GetByID(ctx context.Context, id string) (*models.School, error) {
	var s models.School
	err := r.db.QueryRow(ctx, `
		SELECT id, name, domain, location_city, location_country, created_at
		FROM schools WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Domain, &s.LocationCity, &s.LocationCountry, &s.CreatedAt)
	if err != nil {
		return nil, readError("error retrieving school", err, apperrors.NewResourceNotFoundError("school not found"))
	}
	return &s, nil
}

// Create inserts a school
func (r *SchoolRepository) Create(ctx context.Context, s *models.School) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO schools (name, domain, location_city, location_country)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		s.Name, s.Domain, s.LocationCity, s.LocationCountry,
	).Scan(&s.ID, &s.CreatedAt)
	return writeError("error creating school", err)
}
