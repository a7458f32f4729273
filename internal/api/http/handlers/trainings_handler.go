package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/club-service/internal/api/dto"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository"
	"github.com/spec-kit/club-service/internal/service"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

// TrainingsHandler serves the schedule and per-training enrollment actions.
type TrainingsHandler struct {
	trainings   *service.TrainingService
	enrollments *service.EnrollmentService
}

// NewTrainingsHandler constructs handler.
func NewTrainingsHandler(trainings *service.TrainingService, enrollments *service.EnrollmentService) *TrainingsHandler {
	return &TrainingsHandler{trainings: trainings, enrollments: enrollments}
}

// List GET /api/trainings.
func (h *TrainingsHandler) List(c *fiber.Ctx) error {
	var q dto.TrainingListQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}
	filter := repository.TrainingFilter{Search: strings.TrimSpace(q.Search), OrderBy: q.Ordering}
	var err error
	if filter.SportID, err = optionalID("sport", q.Sport); err != nil {
		return err
	}
	if filter.CoachID, err = optionalID("coach", q.Coach); err != nil {
		return err
	}
	if q.Difficulty != "" {
		difficulty := domain.Difficulty(q.Difficulty)
		filter.Difficulty = &difficulty
	}
	if filter.Date, err = parseDate("date", &q.Date); err != nil {
		return err
	}
	filter.Limit, filter.Offset = page(q.Limit, q.Offset)

	trainings, err := h.trainings.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": trainingList(trainings)})
}

// Upcoming GET /api/trainings/upcoming.
func (h *TrainingsHandler) Upcoming(c *fiber.Ctx) error {
	limit, offset := pageQuery(c)
	trainings, err := h.trainings.Upcoming(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": trainingList(trainings)})
}

// MyTrainings GET /api/trainings/my-trainings.
func (h *TrainingsHandler) MyTrainings(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, offset := pageQuery(c)
	trainings, err := h.trainings.MyTrainings(c.UserContext(), caller, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": trainingList(trainings)})
}

// Get GET /api/trainings/:id.
func (h *TrainingsHandler) Get(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "training")
	if err != nil {
		return err
	}
	view, err := h.trainings.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	resp := trainingResponse(&view.Training)
	resp.IsEnrolled = &view.IsEnrolled
	return c.JSON(fiber.Map{"data": resp})
}

// Create POST /api/trainings.
func (h *TrainingsHandler) Create(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	in, err := trainingInput(c)
	if err != nil {
		return err
	}
	training, err := h.trainings.Create(c.UserContext(), caller, in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": trainingResponse(training)})
}

// Update PUT /api/trainings/:id.
func (h *TrainingsHandler) Update(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "training")
	if err != nil {
		return err
	}
	in, err := trainingInput(c)
	if err != nil {
		return err
	}
	training, err := h.trainings.Update(c.UserContext(), caller, id, in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": trainingResponse(training)})
}

// Delete DELETE /api/trainings/:id. Trainings with enrollment history are
// deactivated instead.
func (h *TrainingsHandler) Delete(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "training")
	if err != nil {
		return err
	}
	deleted, err := h.trainings.Delete(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	if deleted {
		return c.SendStatus(http.StatusNoContent)
	}
	return c.JSON(message("training has enrollments and was deactivated"))
}

// Enroll POST /api/trainings/:id/enroll.
func (h *TrainingsHandler) Enroll(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "training")
	if err != nil {
		return err
	}
	enrollment, err := h.enrollments.Enroll(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": enrollmentResponse(enrollment)})
}

// CancelEnrollment POST /api/trainings/:id/cancel-enrollment.
func (h *TrainingsHandler) CancelEnrollment(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "training")
	if err != nil {
		return err
	}
	enrollment, err := h.enrollments.Cancel(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": enrollmentResponse(enrollment)})
}

// Enrollments GET /api/trainings/:id/enrollments.
func (h *TrainingsHandler) Enrollments(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "training")
	if err != nil {
		return err
	}
	details, err := h.enrollments.TrainingEnrollments(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": enrollmentDetails(details)})
}

func trainingInput(c *fiber.Ctx) (service.TrainingInput, error) {
	var req dto.TrainingRequest
	if err := parseBody(c, &req); err != nil {
		return service.TrainingInput{}, err
	}
	in := service.TrainingInput{
		SportID:         req.SportID,
		CoachID:         req.CoachID,
		Title:           req.Title,
		Description:     req.Description,
		Difficulty:      req.Difficulty,
		StartTime:       req.StartTime,
		DurationMinutes: req.Duration,
		MaxParticipants: req.MaxParticipants,
		IsActive:        req.IsActive,
	}
	if req.Date != nil {
		date, err := parseDate("date", req.Date)
		if err != nil {
			return service.TrainingInput{}, err
		}
		if date == nil {
			return service.TrainingInput{}, apperrors.NewFieldError("date", "this field is required")
		}
		in.Date = date
	}
	return in, nil
}

func trainingList(trainings []domain.Training) []dto.TrainingResponse {
	items := make([]dto.TrainingResponse, 0, len(trainings))
	for i := range trainings {
		items = append(items, trainingResponse(&trainings[i]))
	}
	return items
}

func trainingResponse(t *domain.Training) dto.TrainingResponse {
	return dto.TrainingResponse{
		ID:              t.ID,
		SportID:         t.SportID,
		SportName:       t.SportName,
		CoachID:         t.CoachID,
		CoachName:       t.CoachName,
		Title:           t.Title,
		Description:     t.Description,
		Difficulty:      t.Difficulty,
		Date:            formatDate(t.Date),
		StartTime:       t.StartTime,
		Duration:        t.DurationMinutes,
		MaxParticipants: t.MaxParticipants,
		EnrolledCount:   t.EnrolledCount,
		IsFull:          t.IsFull(),
		AvailableSpots:  t.AvailableSpots(),
		IsActive:        t.IsActive,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
