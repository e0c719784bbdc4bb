package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/db"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/dberrors"
)

// membershipTables names the entity and edge tables of one membership kind.
type membershipTables struct {
	entity    string
	edge      string
	entityCol string
}

var membershipTableSet = map[models.MembershipKind]membershipTables{
	models.MembershipCommunity: {entity: "communities", edge: "community_members", entityCol: "community_id"},
	models.MembershipGroup:     {entity: "groups", edge: "group_members", entityCol: "group_id"},
}

func tablesFor(kind models.MembershipKind) (membershipTables, error) {
	t, ok := membershipTableSet[kind]
	if !ok {
		return membershipTables{}, apperrors.NewValidationError(fmt.Sprintf("unknown membership kind %q", kind))
	}
	return t, nil
}

// MembershipRepository handles communities, groups and their members
type MembershipRepository struct {
	db *pgxpool.Pool
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const communitySelect = `
	SELECT id, name, slug, description, icon_url, banner_url, is_global, member_count, post_count, created_at
	FROM communities`

func scanCommunity(row pgx.Row) (*models.Community, error) {
	var c models.Community
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IconURL, &c.BannerURL,
		&c.IsGlobal, &c.MemberCount, &c.PostCount, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCommunities returns global communities, most members first
func (r *MembershipRepository) ListCommunities(ctx context.Context) ([]*models.Community, error) {
	rows, err := r.db.Query(ctx, communitySelect+` WHERE is_global ORDER BY member_count DESC, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var communities []*models.Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// GetCommunity retrieves a community by ID
func (r *MembershipRepository) GetCommunity(ctx context.Context, id string) (*models.Community, error) {
	c, err := scanCommunity(r.db.QueryRow(ctx, communitySelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, readError("error retrieving community", err, apperrors.NewResourceNotFoundError("community not found"))
	}
	return c, nil
}

// CreateCommunity inserts a community
func (r *MembershipRepository) CreateCommunity(ctx context.Context, c *models.Community) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO communities (name, slug, description, icon_url, banner_url, is_global)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, member_count, post_count, created_at`,
		c.Name, c.Slug, c.Description, c.IconURL, c.BannerURL, c.IsGlobal,
	).Scan(&c.ID, &c.MemberCount, &c.PostCount, &c.CreatedAt)
	return writeError("error creating community", err)
}

const groupSelect = `
	SELECT g.id, g.school_id, g.name, g.type, g.description, g.subject_code, g.grade_level,
	       g.member_count, g.leader_id, g.is_private, g.created_at, s.name
	FROM groups g
	LEFT JOIN schools s ON s.id = g.school_id`

func scanGroup(row pgx.Row) (*models.GroupEntry, error) {
	var g models.GroupEntry
	err := row.Scan(&g.ID, &g.SchoolID, &g.Name, &g.Type, &g.Description, &g.SubjectCode, &g.GradeLevel,
		&g.MemberCount, &g.LeaderID, &g.IsPrivate, &g.CreatedAt, &g.SchoolName)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGroups returns a school's groups ordered by type
func (r *MembershipRepository) ListGroups(ctx context.Context, schoolID string) ([]*models.GroupEntry, error) {
	rows, err := r.db.Query(ctx, groupSelect+` WHERE g.school_id = $1 ORDER BY g.type ASC, g.created_at, g.id`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var groups []*models.GroupEntry
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroup retrieves a group by ID
func (r *MembershipRepository) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	g, err := scanGroup(r.db.QueryRow(ctx, groupSelect+` WHERE g.id = $1`, id))
	if err != nil {
		return nil, readError("error retrieving group", err, apperrors.NewResourceNotFoundError("group not found"))
	}
	return &g.Group, nil
}

// CreateGroup inserts a group
func (r *MembershipRepository) CreateGroup(ctx context.Context, g *models.Group) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO groups (school_id, name, type, description, subject_code, grade_level, leader_id, is_private)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, member_count, created_at`,
		g.SchoolID, g.Name, g.Type, g.Description, g.SubjectCode, g.GradeLevel, g.LeaderID, g.IsPrivate,
	).Scan(&g.ID, &g.MemberCount, &g.CreatedAt)
	return writeError("error creating group", err)
}

// MemberOf returns the IDs of the entities profileID belongs to
func (r *MembershipRepository) MemberOf(ctx context.Context, kind models.MembershipKind, profileID string) ([]string, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	sql, args, err := psql.Select(t.entityCol).From(t.edge).Where(t.edge+".profile_id = ?", profileID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Join inserts the membership edge and bumps member_count in the same transaction
func (r *MembershipRepository) Join(ctx context.Context, kind models.MembershipKind, entityID, profileID string) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (%s, profile_id) VALUES ($1, $2)`, t.edge, t.entityCol),
			entityID, profileID)
		if err != nil {
			if dberrors.IsUniqueViolation(err) {
				return apperrors.ErrAlreadyMember
			}
			return writeError("error joining", err)
		}
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`UPDATE %s SET member_count = member_count + 1 WHERE id = $1`, t.entity), entityID)
		if err != nil {
			return fmt.Errorf("error incrementing member count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewResourceNotFoundError(string(kind) + " not found")
		}
		return nil
	})
}

// Leave deletes the membership edge and decrements member_count, never below zero
func (r *MembershipRepository) Leave(ctx context.Context, kind models.MembershipKind, entityID, profileID string) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND profile_id = $2`, t.edge, t.entityCol),
			entityID, profileID)
		if err != nil {
			return fmt.Errorf("error leaving: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrNotMember
		}
		_, err = tx.Exec(ctx,
			fmt.Sprintf(`UPDATE %s SET member_count = GREATEST(member_count - 1, 0) WHERE id = $1`, t.entity), entityID)
		if err != nil {
			return fmt.Errorf("error decrementing member count: %w", err)
		}
		return nil
	})
}

// ReconcileCounts recomputes member_count from the edge table for rows that drifted
func (r *MembershipRepository) ReconcileCounts(ctx context.Context, kind models.MembershipKind) ([]models.CountCorrection, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		WITH actual AS (
			SELECT e.id, e.member_count AS previous,
			       (SELECT COUNT(*) FROM %[2]s m WHERE m.%[3]s = e.id)::int AS actual
			FROM %[1]s e
		)
		UPDATE %[1]s e SET member_count = a.actual
		FROM actual a
		WHERE e.id = a.id AND a.previous <> a.actual
		RETURNING e.id, a.previous, a.actual`, t.entity, t.edge, t.entityCol)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error reconciling %s counts: %w", t.entity, err)
	}
	defer rows.Close()

	var corrections []models.CountCorrection
	for rows.Next() {
		c := models.CountCorrection{Kind: kind}
		if err := rows.Scan(&c.ID, &c.Previous, &c.Actual); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}
