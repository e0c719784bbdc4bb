package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// ChatRepository handles group chats and messages
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// ListChats returns the school's chats open to gradeLevel, by name
func (r *ChatRepository) ListChats(ctx context.Context, schoolID string, gradeLevel *string) ([]*models.GroupChat, error) {
	query := psql.Select("id", "school_id", "grade_level", "name", "created_at").
		From("group_chats").
		Where(squirrel.Eq{"school_id": schoolID}).
		OrderBy("name", "id")
	if gradeLevel != nil {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"grade_level": nil},
			squirrel.Eq{"grade_level": *gradeLevel},
		})
	} else {
		query = query.Where(squirrel.Eq{"grade_level": nil})
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

	var chats []*models.GroupChat
	for rows.Next() {
		var c models.GroupChat
		if err := rows.Scan(&c.ID, &c.SchoolID, &c.GradeLevel, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		chats = append(chats, &c)
	}
	return chats, rows.Err()
}

// GetChat retrieves a chat by ID
func (r *ChatRepository) GetChat(ctx context.Context, id string) (*models.GroupChat, error) {
	var c models.GroupChat
	err := r.db.QueryRow(ctx,
		`SELECT id, school_id, grade_level, name, created_at FROM group_chats WHERE id = $1`, id,
	).Scan(&c.ID, &c.SchoolID, &c.GradeLevel, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, readError("error retrieving chat", err, apperrors.NewResourceNotFoundError("chat not found"))
	}
	return &c, nil
}

// CreateChat inserts a chat
func (r *ChatRepository) CreateChat(ctx context.Context, c *models.GroupChat) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO group_chats (school_id, grade_level, name) VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		c.SchoolID, c.GradeLevel, c.Name,
	).Scan(&c.ID, &c.CreatedAt)
	return writeError("error creating chat", err)
}

// ListMessages returns the latest limit messages of a chat in ascending order
func (r *ChatRepository) ListMessages(ctx context.Context, chatID string, limit int) ([]*models.MessageEntry, error) {
	if limit <= 0 {
		limit = MessageHistoryLimit
	}
	rows, err := r.db.Query(ctx, `
		SELECT * FROM (
			SELECT m.id, m.chat_id, m.sender_id, m.content, m.created_at, p.username
			FROM messages m
			LEFT JOIN profiles p ON p.id = m.sender_id
			WHERE m.chat_id = $1
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $2
		) latest
		ORDER BY created_at ASC, id ASC`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var messages []*models.MessageEntry
	for rows.Next() {
		var m models.MessageEntry
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt, &m.SenderUsername); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// CreateMessage inserts a message; the insert trigger publishes it to listeners
func (r *ChatRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		m.ChatID, m.SenderID, m.Content,
	).Scan(&m.ID, &m.CreatedAt)
	return writeError("error creating message", err)
}
