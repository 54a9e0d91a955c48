package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"edtech/internal/api/middleware"
	"edtech/internal/database"
)

// CourseHandler 负责课程目录、报名与学习进度。
type CourseHandler struct {
	courses *database.CourseStore
}

func NewCourseHandler(courses *database.CourseStore) *CourseHandler {
	return &CourseHandler{courses: courses}
}

type courseResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       int     `json:"price"`
	Rating      float64 `json:"rating"`
}

func newCourseResponse(c *database.Course) courseResponse {
	return courseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Price:       c.Price,
		Rating:      c.Rating,
	}
}

type enrollmentResponse struct {
	ID        uint           `json:"id"`
	Progress  int            `json:"progress"`
	Course    courseResponse `json:"course"`
	CreatedAt time.Time      `json:"created_at"`
}

func newEnrollmentResponse(e *database.Enrollment) enrollmentResponse {
	return enrollmentResponse{
		ID:        e.ID,
		Progress:  e.Progress,
		Course:    newCourseResponse(&e.Course),
		CreatedAt: e.CreatedAt,
	}
}

// ListCourses 支持 search、category 与 sort=price|rating 查询参数。
func (h *CourseHandler) ListCourses(c *gin.Context) {
	sort := c.Query("sort")
	switch sort {
	case database.CourseSortNone, database.CourseSortPrice, database.CourseSortRating:
	default:
		BadRequest(c, "sort must be price or rating")
		return
	}

	courses, err := h.courses.ListCourses(c.Request.Context(), database.CourseFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     sort,
	})
	if err != nil {
		Internal(c, "failed to list courses")
		return
	}

	items := make([]courseResponse, 0, len(courses))
	for i := range courses {
		items = append(items, newCourseResponse(&courses[i]))
	}
	c.JSON(http.StatusOK, items)
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		BadRequest(c, "invalid course id")
		return
	}
	course, err := h.courses.FindCourseByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NotFound(c, "course not found")
			return
		}
		Internal(c, "failed to query course")
		return
	}
	c.JSON(http.StatusOK, newCourseResponse(course))
}

// Enroll 报名课程；重复报名返回 200 与已有记录。
func (h *CourseHandler) Enroll(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		BadRequest(c, "invalid course id")
		return
	}

	enrollment, created, err := h.courses.Enroll(c.Request.Context(), account.ID, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NotFound(c, "course not found")
			return
		}
		middleware.LoggerFromContext(c).Error("enroll failed", slog.Any("error", err))
		Internal(c, "failed to enroll")
		return
	}

	course, err := h.courses.FindCourseByID(c.Request.Context(), id)
	if err != nil {
		Internal(c, "failed to query course")
		return
	}
	enrollment.Course = *course

	status, message := http.StatusOK, "You are already enrolled in this course"
	if created {
		status, message = http.StatusCreated, "Successfully enrolled in "+course.Title
	}
	c.JSON(status, gin.H{
		"message":    message,
		"enrollment": newEnrollmentResponse(enrollment),
	})
}

// MyCourses 返回当前账号的报名与进度。
func (h *CourseHandler) MyCourses(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	enrollments, err := h.courses.ListEnrollmentsByAccount(c.Request.Context(), account.ID)
	if err != nil {
		Internal(c, "failed to list enrollments")
		return
	}

	items := make([]enrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		items = append(items, newEnrollmentResponse(&enrollments[i]))
	}
	c.JSON(http.StatusOK, items)
}

type progressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

// UpdateProgress 更新学习进度，超过 100 时截断。
func (h *CourseHandler) UpdateProgress(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		BadRequest(c, "invalid enrollment id")
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if *req.Progress < 0 {
		BadRequest(c, "progress must not be negative")
		return
	}

	ctx := c.Request.Context()
	enrollment, err := h.courses.FindEnrollmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NotFound(c, "enrollment not found")
			return
		}
		Internal(c, "failed to query enrollment")
		return
	}
	if enrollment.AccountID != account.ID {
		Forbidden(c, "enrollment belongs to another account")
		return
	}

	if err := h.courses.UpdateProgress(ctx, enrollment, *req.Progress); err != nil {
		Internal(c, "failed to update progress")
		return
	}
	c.JSON(http.StatusOK, newEnrollmentResponse(enrollment))
}
