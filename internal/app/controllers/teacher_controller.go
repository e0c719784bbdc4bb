package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
)

// TeacherController serves teacher ratings
type TeacherController struct {
	ratings services.RatingService
}

// NewTeacherController creates a new TeacherController
func NewTeacherController(ratings services.RatingService) *TeacherController {
	return &TeacherController{ratings: ratings}
}

// ListTeachers lists teachers with their average rating
// @Summary List teachers
// @Tags teachers
// @Produce json
// @Param schoolId query string false "Restrict to one school"
// @Success 200 {object} dto.APIResponse{data=[]dto.TeacherView}
// @Router /teachers [get]
func (c *TeacherController) ListTeachers(ctx *gin.Context) {
	schoolID, valid := optionalSchoolID(ctx)
	if !valid {
		return
	}

	teachers, err := c.ratings.ListTeachers(ctx.Request.Context(), viewerOf(ctx), schoolID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, teachers)
}

// RateTeacher records the caller's score, replacing an earlier one
// @Summary Rate teacher
// @Tags teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Param request body dto.RateTeacherRequest true "Score 1-5"
// @Success 200 {object} dto.APIResponse{data=[]dto.TeacherView} "Refetched teachers"
// @Failure 400 {object} dto.ErrorResponse "Score out of range"
// @Failure 404 {object} dto.ErrorResponse "Teacher not found"
// @Router /teachers/{id}/ratings [post]
func (c *TeacherController) RateTeacher(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.RateTeacherRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	teachers, err := c.ratings.RateTeacher(ctx.Request.Context(), viewerOf(ctx), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, teachers)
}
