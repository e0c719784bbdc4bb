package models

import "time"

// Post is a feed entry
type Post struct {
	ID        string    `json:"id" db:"id"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	SchoolID  *string   `json:"schoolId,omitempty" db:"school_id"`
	Content   string    `json:"content" db:"content"`
	ImageURLs []string  `json:"imageUrls" db:"image_urls"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PostEntry is a post joined with its author username and school name.
type PostEntry struct {
	Post
	AuthorUsername *string
	SchoolName     *string
}

// Vote is one row of the vote ledger, unique per (PostID, UserID).
type Vote struct {
	PostID   string        `json:"postId" db:"post_id"`
	UserID   string        `json:"userId" db:"user_id"`
	VoteType VoteDirection `json:"voteType" db:"vote_type"`
}

// Comment belongs to a post
type Comment struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"postId" db:"post_id"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CommentEntry is a comment joined with its author username.
type CommentEntry struct {
	Comment
	AuthorUsername *string
}
