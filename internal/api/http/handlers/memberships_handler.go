package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/club-service/internal/api/dto"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository"
	"github.com/spec-kit/club-service/internal/service"
)

// MembershipsHandler serves member subscriptions.
type MembershipsHandler struct {
	memberships *service.MembershipService
}

// NewMembershipsHandler constructs handler.
func NewMembershipsHandler(memberships *service.MembershipService) *MembershipsHandler {
	return &MembershipsHandler{memberships: memberships}
}

// List GET /api/memberships.
func (h *MembershipsHandler) List(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var q dto.MembershipListQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}
	filter := repository.MembershipFilter{OrderBy: q.Ordering}
	if filter.UserID, err = optionalID("user", q.User); err != nil {
		return err
	}
	if filter.PlanID, err = optionalID("plan", q.Plan); err != nil {
		return err
	}
	if filter.IsActive, err = parseBool("is_active", q.IsActive); err != nil {
		return err
	}
	filter.Limit, filter.Offset = page(q.Limit, q.Offset)

	memberships, err := h.memberships.List(c.UserContext(), caller, filter)
	if err != nil {
		return err
	}
	today := h.memberships.Today()
	items := make([]dto.MembershipResponse, 0, len(memberships))
	for i := range memberships {
		items = append(items, membershipResponse(&memberships[i], today))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/memberships/:id.
func (h *MembershipsHandler) Get(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "membership")
	if err != nil {
		return err
	}
	m, err := h.memberships.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": membershipResponse(m, h.memberships.Today())})
}

// Create POST /api/memberships.
func (h *MembershipsHandler) Create(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MembershipRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.MembershipInput{
		UserID:    req.UserID,
		PlanID:    req.PlanID,
		IsActive:  req.IsActive,
		AutoRenew: req.AutoRenew,
	}
	if in.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		return err
	}
	if in.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
		return err
	}

	m, err := h.memberships.Create(c.UserContext(), caller, in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": membershipResponse(m, h.memberships.Today())})
}

// Update PUT /api/memberships/:id.
func (h *MembershipsHandler) Update(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "membership")
	if err != nil {
		return err
	}
	var req dto.MembershipUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.MembershipUpdateInput{
		PlanID:    req.PlanID,
		IsActive:  req.IsActive,
		AutoRenew: req.AutoRenew,
	}
	if in.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		return err
	}
	if in.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
		return err
	}

	m, err := h.memberships.Update(c.UserContext(), caller, id, in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": membershipResponse(m, h.memberships.Today())})
}

// MyMembership GET /api/memberships/my-membership.
func (h *MembershipsHandler) MyMembership(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	m, err := h.memberships.Current(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": membershipResponse(m, h.memberships.Today())})
}

func membershipResponse(m *domain.Membership, today time.Time) dto.MembershipResponse {
	resp := dto.MembershipResponse{
		ID:            m.ID,
		UserID:        m.UserID,
		UserName:      m.UserName,
		PlanID:        m.PlanID,
		StartDate:     formatDate(m.StartDate),
		EndDate:       formatDate(m.EndDate),
		IsActive:      m.IsActive,
		AutoRenew:     m.AutoRenew,
		IsExpired:     m.IsExpired(today),
		DaysRemaining: m.DaysRemaining(today),
		CreatedAt:     m.CreatedAt,
	}
	if m.Plan != nil {
		plan := planResponse(m.Plan)
		resp.Plan = &plan
	}
	return resp
}
