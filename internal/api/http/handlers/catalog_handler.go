package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/club-service/internal/api/dto"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/service"
)

// CatalogHandler serves sports and membership plans.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListSports GET /api/sports.
func (h *CatalogHandler) ListSports(c *fiber.Ctx) error {
	limit, offset := pageQuery(c)
	sports, err := h.catalog.ListSports(c.UserContext(), strings.TrimSpace(c.Query("search")), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.SportResponse, 0, len(sports))
	for i := range sports {
		items = append(items, sportResponse(&sports[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSport GET /api/sports/:id.
func (h *CatalogHandler) GetSport(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "sport")
	if err != nil {
		return err
	}
	sport, err := h.catalog.GetSport(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sportResponse(sport)})
}

// CreateSport POST /api/sports.
func (h *CatalogHandler) CreateSport(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SportRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sport, err := h.catalog.CreateSport(c.UserContext(), caller, service.SportInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sportResponse(sport)})
}

// UpdateSport PUT /api/sports/:id.
func (h *CatalogHandler) UpdateSport(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "sport")
	if err != nil {
		return err
	}
	var req dto.SportRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sport, err := h.catalog.UpdateSport(c.UserContext(), caller, id, service.SportInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sportResponse(sport)})
}

// DeleteSport DELETE /api/sports/:id. A sport that still has trainings is
// deactivated instead.
func (h *CatalogHandler) DeleteSport(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "sport")
	if err != nil {
		return err
	}
	deleted, err := h.catalog.DeleteSport(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	if deleted {
		return c.SendStatus(http.StatusNoContent)
	}
	return c.JSON(message("sport has trainings and was deactivated"))
}

// ListPlans GET /api/membership-plans.
func (h *CatalogHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.catalog.ListPlans(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		items = append(items, planResponse(&plans[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetPlan GET /api/membership-plans/:id.
func (h *CatalogHandler) GetPlan(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "membership plan")
	if err != nil {
		return err
	}
	plan, err := h.catalog.GetPlan(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": planResponse(plan)})
}

// CreatePlan POST /api/membership-plans.
func (h *CatalogHandler) CreatePlan(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PlanRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	plan, err := h.catalog.CreatePlan(c.UserContext(), caller, service.PlanInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": planResponse(plan)})
}

// UpdatePlan PUT /api/membership-plans/:id.
func (h *CatalogHandler) UpdatePlan(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "membership plan")
	if err != nil {
		return err
	}
	var req dto.PlanRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	plan, err := h.catalog.UpdatePlan(c.UserContext(), caller, id, service.PlanInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": planResponse(plan)})
}

// DeletePlan DELETE /api/membership-plans/:id.
func (h *CatalogHandler) DeletePlan(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "membership plan")
	if err != nil {
		return err
	}
	if err := h.catalog.DeletePlan(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func sportResponse(s *domain.Sport) dto.SportResponse {
	return dto.SportResponse{
		ID:             s.ID,
		Name:           s.Name,
		Description:    s.Description,
		IsActive:       s.IsActive,
		TrainingsCount: s.TrainingsCount,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func planResponse(p *domain.MembershipPlan) dto.PlanResponse {
	return dto.PlanResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Description:         p.Description,
		Price:               p.Price,
		DurationDays:        p.DurationDays,
		MaxTrainingsPerWeek: p.MaxTrainingsPerWeek,
		IsActive:            p.IsActive,
		MembersCount:        p.MembersCount,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
