package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/db"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/dberrors"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithProfile inserts the user and its profile in one transaction
func (r *UserRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
			user.Email, user.PasswordHash,
		).Scan(&user.ID, &user.CreatedAt)
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
				return apperrors.ErrEmailAlreadyExists
			}
			return writeError("error creating user", err)
		}

		profile.UserID = user.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO profiles (user_id, username, display_name, school_id, grade_level)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, reputation_points, created_at, updated_at`,
			profile.UserID, profile.Username, profile.DisplayName, profile.SchoolID, profile.GradeLevel,
		).Scan(&profile.ID, &profile.ReputationPoints, &profile.CreatedAt, &profile.UpdatedAt)
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, "profiles_username_key") {
				return apperrors.ErrUsernameTaken
			}
			return writeError("error creating profile", err)
		}
		return nil
	})
}

func (r *UserRepository) getBy(ctx context.Context, column string, value string) (*models.User, error) {
	sql, args, err := psql.Select("id", "email", "password_hash", "created_at", "last_login_at").
		From("users").
		Where(column+" = ?", value).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var user models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, readError("error retrieving user", err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// UpdateLastLogin stamps the last successful sign-in
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
