package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// NotificationRepository handles notifications
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// List returns a profile's newest notifications
func (r *NotificationRepository) List(ctx context.Context, profileID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = NotificationLimit
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, profile_id, type, title, body, link_url, is_read, created_at
		FROM notifications
		WHERE profile_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.ProfileID, &n.Type, &n.Title, &n.Body, &n.LinkURL, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// CountUnread counts a profile's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, profileID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE profile_id = $1 AND NOT is_read`, profileID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips one notification owned by profileID to read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, profileID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND profile_id = $2`, id, profileID)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("notification not found")
	}
	return nil
}

// MarkAllRead flips every unread notification of the profile and returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, profileID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE profile_id = $1 AND NOT is_read`, profileID)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Create inserts a notification; the insert trigger publishes it to listeners
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (profile_id, type, title, body, link_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at`,
		n.ProfileID, n.Type, n.Title, n.Body, n.LinkURL,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	return writeError("error creating notification", err)
}
