package dto

import (
	"time"

	"github.com/yigit/schoolyard/internal/app/models"
)

// CommunityView is a community with the viewer's membership flag
type CommunityView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	IconURL     *string   `json:"iconUrl,omitempty"`
	BannerURL   *string   `json:"bannerUrl,omitempty"`
	MemberCount int       `json:"memberCount"`
	PostCount   int       `json:"postCount"`
	IsMember    bool      `json:"isMember"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewCommunityView converts a community row
func NewCommunityView(c *models.Community, isMember bool) CommunityView {
	return CommunityView{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		IconURL:     c.IconURL,
		BannerURL:   c.BannerURL,
		MemberCount: c.MemberCount,
		PostCount:   c.PostCount,
		IsMember:    isMember,
		CreatedAt:   c.CreatedAt,
	}
}

// GroupView is a school group with its school name and the viewer's membership flag
type GroupView struct {
	ID          string    `json:"id"`
	SchoolID    string    `json:"schoolId"`
	SchoolName  *string   `json:"schoolName,omitempty"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description *string   `json:"description,omitempty"`
	SubjectCode *string   `json:"subjectCode,omitempty"`
	GradeLevel  *string   `json:"gradeLevel,omitempty"`
	MemberCount int       `json:"memberCount"`
	LeaderID    *string   `json:"leaderId,omitempty"`
	IsPrivate   bool      `json:"isPrivate"`
	IsMember    bool      `json:"isMember"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewGroupView converts a joined group row
func NewGroupView(g *models.GroupEntry, isMember bool) GroupView {
	return GroupView{
		ID:          g.ID,
		SchoolID:    g.SchoolID,
		SchoolName:  g.SchoolName,
		Name:        g.Name,
		Type:        g.Type,
		Description: g.Description,
		SubjectCode: g.SubjectCode,
		GradeLevel:  g.GradeLevel,
		MemberCount: g.MemberCount,
		LeaderID:    g.LeaderID,
		IsPrivate:   g.IsPrivate,
		IsMember:    isMember,
		CreatedAt:   g.CreatedAt,
	}
}

// CreateGroupRequest represents group creation data
type CreateGroupRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Type        string  `json:"type" binding:"required,oneof=class club study_group"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	SubjectCode *string `json:"subjectCode" binding:"omitempty,max=20"`
	GradeLevel  *string `json:"gradeLevel" binding:"omitempty,max=20"`
	IsPrivate   bool    `json:"isPrivate"`
}
