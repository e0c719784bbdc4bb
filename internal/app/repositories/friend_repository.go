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
	"github.com/yigit/schoolyard/internal/pkg/dberrors"
)

// FriendRepository handles friend requests and friendships
type FriendRepository struct {
	db *pgxpool.Pool
}

// NewFriendRepository creates a new FriendRepository
func NewFriendRepository(db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: db}
}

// ListFriendships returns every friendship touching profileID
func (r *FriendRepository) ListFriendships(ctx context.Context, profileID string) ([]*models.Friendship, error) {
	sql, args, err := psql.Select("id", "profile_id_1", "profile_id_2", "created_at").
		From("friendships").
		Where(squirrel.Or{
			squirrel.Eq{"profile_id_1": profileID},
			squirrel.Eq{"profile_id_2": profileID},
		}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var friendships []*models.Friendship
	for rows.Next() {
		var f models.Friendship
		if err := rows.Scan(&f.ID, &f.ProfileID1, &f.ProfileID2, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		friendships = append(friendships, &f)
	}
	return friendships, rows.Err()
}

var requestColumns = []string{"id", "sender_id", "receiver_id", "status", "created_at", "updated_at"}

func scanRequest(row pgx.Row) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := row.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FriendRepository) listRequests(ctx context.Context, query squirrel.SelectBuilder) ([]*models.FriendRequest, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var requests []*models.FriendRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// ListRequests returns friend requests matching filter, newest first
func (r *FriendRepository) ListRequests(ctx context.Context, filter RequestFilter) ([]*models.FriendRequest, error) {
	query := psql.Select(requestColumns...).From("friend_requests").OrderBy("created_at DESC", "id")
	if filter.SenderID != "" {
		query = query.Where(squirrel.Eq{"sender_id": filter.SenderID})
	}
	if filter.ReceiverID != "" {
		query = query.Where(squirrel.Eq{"receiver_id": filter.ReceiverID})
	}
	if filter.EitherID != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"sender_id": filter.EitherID},
			squirrel.Eq{"receiver_id": filter.EitherID},
		})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	return r.listRequests(ctx, query)
}

// GetRequest retrieves a friend request by ID
func (r *FriendRepository) GetRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	sql, args, err := psql.Select(requestColumns...).From("friend_requests").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	req, err := scanRequest(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, readError("error retrieving friend request", err, apperrors.ErrRequestNotFound)
	}
	return req, nil
}

// CreateRequest inserts a pending request; the partial unique index rejects a
// second pending request between the same two profiles.
func (r *FriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	req.Status = models.RequestPending
	err := r.db.QueryRow(ctx, `
		INSERT INTO friend_requests (sender_id, receiver_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		req.SenderID, req.ReceiverID, req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "friend_requests_pending_pair") {
			return apperrors.ErrRequestExists
		}
		if dberrors.IsCheckViolation(err) {
			return apperrors.ErrSelfRequest
		}
		return writeError("error creating friend request", err)
	}
	return nil
}

// transition moves a pending request addressed to receiverID into status.
func transition(ctx context.Context, q db.DBTX, requestID, receiverID string, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	req, err := scanRequest(q.QueryRow(ctx, `
		UPDATE friend_requests SET status = $1, updated_at = now()
		WHERE id = $2 AND receiver_id = $3 AND status = 'pending'
		RETURNING id, sender_id, receiver_id, status, created_at, updated_at`,
		status, requestID, receiverID,
	))
	if err != nil {
		return nil, readError("error updating friend request", err, apperrors.ErrRequestNotFound)
	}
	return req, nil
}

func insertFriendship(ctx context.Context, q db.DBTX, a, b string) (*models.Friendship, bool, error) {
	id1, id2 := models.CanonicalPair(a, b)
	f := &models.Friendship{ProfileID1: id1, ProfileID2: id2}
	err := q.QueryRow(ctx, `
		INSERT INTO friendships (profile_id_1, profile_id_2)
		VALUES ($1, $2)
		ON CONFLICT (profile_id_1, profile_id_2) DO NOTHING
		RETURNING id, created_at`,
		id1, id2,
	).Scan(&f.ID, &f.CreatedAt)
	if err == nil {
		return f, true, nil
	}
	if !dberrors.IsNoRows(err) {
		return nil, false, writeError("error creating friendship", err)
	}

	// The pair already existed; return the stored row.
	err = q.QueryRow(ctx, `
		SELECT id, created_at FROM friendships WHERE profile_id_1 = $1 AND profile_id_2 = $2`,
		id1, id2,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("error reading friendship: %w", err)
	}
	return f, false, nil
}

// AcceptRequest marks the request accepted and creates the canonical friendship atomically
func (r *FriendRepository) AcceptRequest(ctx context.Context, requestID, receiverID string) (*models.Friendship, error) {
	var friendship *models.Friendship
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		req, err := transition(ctx, tx, requestID, receiverID, models.RequestAccepted)
		if err != nil {
			return err
		}
		friendship, _, err = insertFriendship(ctx, tx, req.SenderID, req.ReceiverID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return friendship, nil
}

// RejectRequest marks a pending request rejected
func (r *FriendRepository) RejectRequest(ctx context.Context, requestID, receiverID string) error {
	_, err := transition(ctx, r.db, requestID, receiverID, models.RequestRejected)
	return err
}

// EnsureFriendship inserts the canonical pair unless it already exists
func (r *FriendRepository) EnsureFriendship(ctx context.Context, a, b string) (bool, error) {
	_, created, err := insertFriendship(ctx, r.db, a, b)
	return created, err
}

// DeleteFriendship removes the canonical row for the pair
func (r *FriendRepository) DeleteFriendship(ctx context.Context, a, b string) error {
	id1, id2 := models.CanonicalPair(a, b)
	tag, err := r.db.Exec(ctx, `DELETE FROM friendships WHERE profile_id_1 = $1 AND profile_id_2 = $2`, id1, id2)
	if err != nil {
		return fmt.Errorf("error deleting friendship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrFriendshipMissing
	}
	return nil
}

// ListOrphanedAccepts finds accepted requests whose friendship row is missing
func (r *FriendRepository) ListOrphanedAccepts(ctx context.Context) ([]*models.FriendRequest, error) {
	return r.listRequests(ctx, psql.Select(
		"fr.id", "fr.sender_id", "fr.receiver_id", "fr.status", "fr.created_at", "fr.updated_at",
	).
		From("friend_requests fr").
		Where(squirrel.Eq{"fr.status": models.RequestAccepted}).
		Where(`NOT EXISTS (
			SELECT 1 FROM friendships f
			WHERE f.profile_id_1 = LEAST(fr.sender_id, fr.receiver_id)
			  AND f.profile_id_2 = GREATEST(fr.sender_id, fr.receiver_id))`).
		OrderBy("fr.updated_at"))
}
