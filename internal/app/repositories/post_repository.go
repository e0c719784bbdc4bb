package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// PostRepository handles posts, votes and comments
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

// List returns the newest posts with author username and school name
func (r *PostRepository) List(ctx context.Context, filter PostFilter) ([]*models.PostEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = FeedLimit
	}

	query := psql.Select(
		"p.id", "p.author_id", "p.school_id", "p.content", "p.image_urls", "p.created_at",
		"pr.username", "s.name",
	).
		From("posts p").
		LeftJoin("profiles pr ON pr.id = p.author_id").
		LeftJoin("schools s ON s.id = p.school_id").
		OrderBy("p.created_at DESC", "p.id").
		Limit(uint64(limit))
	if filter.SchoolID != "" {
		query = query.Where(squirrel.Eq{"p.school_id": filter.SchoolID})
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

	var posts []*models.PostEntry
	for rows.Next() {
		var p models.PostEntry
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.SchoolID, &p.Content, &p.ImageURLs, &p.CreatedAt,
			&p.AuthorUsername, &p.SchoolName,
		); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := r.db.QueryRow(ctx, `
		SELECT id, author_id, school_id, content, image_urls, created_at
		FROM posts WHERE id = $1`, id,
	).Scan(&p.ID, &p.AuthorID, &p.SchoolID, &p.Content, &p.ImageURLs, &p.CreatedAt)
	if err != nil {
		return nil, readError("error retrieving post", err, apperrors.NewResourceNotFoundError("post not found"))
	}
	return &p, nil
}

// Create inserts a post
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO posts (author_id, school_id, content, image_urls)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		p.AuthorID, p.SchoolID, p.Content, p.ImageURLs,
	).Scan(&p.ID, &p.CreatedAt)
	return writeError("error creating post", err)
}

// ListVotes returns the ledger rows of the given posts
func (r *PostRepository) ListVotes(ctx context.Context, postIDs []string) ([]*models.Vote, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	sql, args, err := psql.Select("post_id", "user_id", "vote_type").
		From("post_votes").
		Where(squirrel.Eq{"post_id": postIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var votes []*models.Vote
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.PostID, &v.UserID, &v.VoteType); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		votes = append(votes, &v)
	}
	return votes, rows.Err()
}

// GetVote returns the viewer's ledger row for a post
func (r *PostRepository) GetVote(ctx context.Context, postID, userID string) (*models.Vote, error) {
	v := models.Vote{PostID: postID, UserID: userID}
	err := r.db.QueryRow(ctx,
		`SELECT vote_type FROM post_votes WHERE post_id = $1 AND user_id = $2`, postID, userID,
	).Scan(&v.VoteType)
	if err != nil {
		return nil, readError("error retrieving vote", err, apperrors.NewResourceNotFoundError("vote not found"))
	}
	return &v, nil
}

// UpsertVote writes the vote keyed on (post_id, user_id)
func (r *PostRepository) UpsertVote(ctx context.Context, v *models.Vote) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO post_votes (post_id, user_id, vote_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO UPDATE SET vote_type = EXCLUDED.vote_type`,
		v.PostID, v.UserID, v.VoteType,
	)
	return writeError("error writing vote", err)
}

// DeleteVote removes the viewer's ledger row
func (r *PostRepository) DeleteVote(ctx context.Context, postID, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM post_votes WHERE post_id = $1 AND user_id = $2`, postID, userID); err != nil {
		return fmt.Errorf("error deleting vote: %w", err)
	}
	return nil
}

// CountComments returns comment counts keyed by post ID
func (r *PostRepository) CountComments(ctx context.Context, postIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	sql, args, err := psql.Select("post_id", "COUNT(*)").
		From("comments").
		Where(squirrel.Eq{"post_id": postIDs}).
		GroupBy("post_id").
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
		var postID string
		var count int
		if err := rows.Scan(&postID, &count); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		counts[postID] = count
	}
	return counts, rows.Err()
}

// ListComments returns a post's comments oldest first
func (r *PostRepository) ListComments(ctx context.Context, postID string) ([]*models.CommentEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.content, c.created_at, p.username
		FROM comments c
		LEFT JOIN profiles p ON p.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var comments []*models.CommentEntry
	for rows.Next() {
		var c models.CommentEntry
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.AuthorUsername); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// CreateComment inserts a comment
func (r *PostRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO comments (post_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		c.PostID, c.AuthorID, c.Content,
	).Scan(&c.ID, &c.CreatedAt)
	return writeError("error creating comment", err)
}
