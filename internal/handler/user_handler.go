package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

type userDirectory interface {
	List(ctx context.Context, query dto.UserListQuery) ([]models.User, error)
	Add(ctx context.Context, req dto.CreateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error)
	Update(ctx context.Context, id string, req dto.UpdateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error)
	ToggleStatus(ctx context.Context, id, actorID string, meta models.RequestMeta) (*models.User, error)
	Delete(ctx context.Context, id string, confirmed bool, actorID string, meta models.RequestMeta) error
}

// UserHandler serves the admin user directory.
type UserHandler struct {
	service userDirectory
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc userDirectory) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Param search query string false "Name or email contains"
// @Param role query string false "student, teacher, admin, ai or all"
// @Param status query string false "Active, Inactive, Pending or all"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var query dto.UserListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, bindError(err, "invalid user filter"))
		return
	}
	users, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, users, map[string]interface{}{"total": len(users)})
}

// Create godoc
// @Summary Add a user
// @Description New accounts start Pending with a temporary password
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateUserRequest true "User"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid user payload"))
		return
	}
	user, err := h.service.Add(c.Request.Context(), req, actorID(session), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, user)
}

// Update godoc
// @Summary Edit a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserRequest true "User"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid user payload"))
		return
	}
	user, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorID(session), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, user)
}

// ToggleStatus godoc
// @Summary Activate or deactivate a user
// @Description Pending accounts are left unchanged
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/toggle-status [post]
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	user, err := h.service.ToggleStatus(c.Request.Context(), c.Param("id"), actorID(session), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, user)
}

// Delete godoc
// @Summary Delete a user
// @Tags Admin
// @Param id path string true "User ID"
// @Param confirm query bool true "Must be true"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var query dto.DeleteUserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, bindError(err, "confirm must be true or false"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), query.Confirm, actorID(session), requestMeta(c)); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}
