package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/club-service/internal/api/dto"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository"
	"github.com/spec-kit/club-service/internal/service"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List handles GET /api/auth/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var q dto.UserListQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}
	filter := repository.UserFilter{Search: strings.TrimSpace(q.Search), OrderBy: q.Ordering}
	if q.Role != "" {
		role := domain.Role(q.Role)
		filter.Role = &role
	}
	if filter.IsActiveMember, err = parseBool("is_active_member", q.IsActiveMember); err != nil {
		return err
	}
	filter.Limit, filter.Offset = page(q.Limit, q.Offset)

	users, err := h.users.List(c.UserContext(), caller, filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Me handles GET /api/auth/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), caller, caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateMe handles PUT /api/auth/users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	return h.update(c, caller, caller.ID)
}

// Get handles GET /api/auth/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Update handles PUT /api/auth/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "user")
	if err != nil {
		return err
	}
	return h.update(c, caller, id)
}

// Delete handles DELETE /api/auth/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "user")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *UsersHandler) update(c *fiber.Ctx, caller *domain.User, id string) error {
	var req dto.UserUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.UserUpdateInput{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Address:        req.Address,
		Role:           req.Role,
		IsActiveMember: req.IsActiveMember,
	}
	if req.BirthDate != nil {
		birthDate, err := parseDate("birth_date", req.BirthDate)
		if err != nil {
			return err
		}
		in.BirthDate = birthDate
		in.ClearBirthDate = birthDate == nil
	}

	user, err := h.users.Update(c.UserContext(), caller, id, in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func userResponse(u *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		Phone:           u.Phone,
		Address:         u.Address,
		Role:            u.Role,
		IsActiveMember:  u.IsActiveMember,
		MembershipStart: u.MembershipStart,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
	}
	if u.BirthDate != nil {
		birthDate := formatDate(*u.BirthDate)
		resp.BirthDate = &birthDate
	}
	return resp
}
