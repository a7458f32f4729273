package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/club-service/internal/api/dto"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/service"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

// EnrollmentsHandler serves the caller's enrollments and attendance.
type EnrollmentsHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentsHandler constructs handler.
func NewEnrollmentsHandler(enrollments *service.EnrollmentService) *EnrollmentsHandler {
	return &EnrollmentsHandler{enrollments: enrollments}
}

// MyEnrollments GET /api/enrollments/my-enrollments.
func (h *EnrollmentsHandler) MyEnrollments(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	details, err := h.enrollments.MyEnrollments(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": enrollmentDetails(details)})
}

// MarkAttendance PATCH /api/enrollments/:id/attendance.
func (h *EnrollmentsHandler) MarkAttendance(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "enrollment")
	if err != nil {
		return err
	}
	var req dto.AttendanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Attended == nil {
		return apperrors.NewFieldError("attended", "this field is required")
	}
	enrollment, err := h.enrollments.MarkAttendance(c.UserContext(), caller, id, *req.Attended)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": enrollmentResponse(enrollment)})
}

func enrollmentResponse(e *domain.Enrollment) dto.EnrollmentResponse {
	return dto.EnrollmentResponse{
		ID:         e.ID,
		UserID:     e.UserID,
		TrainingID: e.TrainingID,
		Status:     e.Status,
		Attended:   e.Attended,
		Notes:      e.Notes,
		EnrolledAt: e.EnrolledAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func enrollmentDetails(details []domain.EnrollmentDetail) []dto.EnrollmentResponse {
	items := make([]dto.EnrollmentResponse, 0, len(details))
	for i := range details {
		resp := enrollmentResponse(&details[i].Enrollment)
		resp.UserName = details[i].UserName
		training := trainingResponse(&details[i].Training)
		resp.Training = &training
		items = append(items, resp)
	}
	return items
}
