package dto

// TeacherView is a teacher with rating aggregates and the viewer's own score
type TeacherView struct {
	ID            string  `json:"id"`
	SchoolID      string  `json:"schoolId"`
	Name          string  `json:"name"`
	Subject       *string `json:"subject,omitempty"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
	UserRating    *int    `json:"userRating"`
}

// RateTeacherRequest represents a rating upsert
type RateTeacherRequest struct {
	Score   int     `json:"score" binding:"required,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=1000"`
}
