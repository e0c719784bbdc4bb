package models

import "time"

// Community is a global interest community
type Community struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description,omitempty" db:"description"`
	IconURL     *string   `json:"iconUrl,omitempty" db:"icon_url"`
	BannerURL   *string   `json:"bannerUrl,omitempty" db:"banner_url"`
	IsGlobal    bool      `json:"isGlobal" db:"is_global"`
	MemberCount int       `json:"memberCount" db:"member_count"`
	PostCount   int       `json:"postCount" db:"post_count"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Group is a school-scoped group (class, club, study group)
type Group struct {
	ID          string    `json:"id" db:"id"`
	SchoolID    string    `json:"schoolId" db:"school_id"`
	Name        string    `json:"name" db:"name"`
	Type        string    `json:"type" db:"type"`
	Description *string   `json:"description,omitempty" db:"description"`
	SubjectCode *string   `json:"subjectCode,omitempty" db:"subject_code"`
	GradeLevel  *string   `json:"gradeLevel,omitempty" db:"grade_level"`
	MemberCount int       `json:"memberCount" db:"member_count"`
	LeaderID    *string   `json:"leaderId,omitempty" db:"leader_id"`
	IsPrivate   bool      `json:"isPrivate" db:"is_private"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// GroupEntry is a group joined with its school name.
type GroupEntry struct {
	Group
	SchoolName *string
}

// CountCorrection records a member_count that was recomputed from the edge table.
type CountCorrection struct {
	Kind     MembershipKind `json:"kind"`
	ID       string         `json:"id"`
	Previous int            `json:"previous"`
	Actual   int            `json:"actual"`
}
