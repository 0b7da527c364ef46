package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	appctx "github.com/midasconsultingnet/successfuel-api-sub001/internal/core/context"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/auth"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers auth endpoints on public and protected groups.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/login", h.Login)

	protected.POST("/register", h.Register)
	protected.GET("/me", h.Me)
	protected.POST("/change-password", h.ChangePassword)
	protected.GET("/users", h.ListUsers)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.FromUser(result.User),
	})
}

// Register handles POST /auth/register (admin only).
func (h *AuthHandler) Register(c *gin.Context) {
	actor := appctx.GetActor(c.Request.Context())
	if actor == nil || !actor.IsAdmin {
		h.Error(c, apperror.NewForbidden("admin role required"))
		return
	}

	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	stationIDs := make([]id.ID, 0, len(req.StationIDs))
	for _, raw := range req.StationIDs {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid station id").WithDetail("stationId", raw))
			return
		}
		stationIDs = append(stationIDs, parsed)
	}

	user, err := h.service.Register(c.Request.Context(), auth.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Roles:      req.Roles,
		StationIDs: stationIDs,
		IsAdmin:    req.IsAdmin,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, user.ID)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor := appctx.GetActor(c.Request.Context())
	if actor == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	userID, err := id.Parse(actor.ActorID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid actor identity"))
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(user))
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor := appctx.GetActor(c.Request.Context())
	if actor == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	userID, err := id.Parse(actor.ActorID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid actor identity"))
		return
	}

	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SuccessResponse{Success: true, Message: "password changed"})
}

// ListUsers handles GET /auth/users (admin only).
func (h *AuthHandler) ListUsers(c *gin.Context) {
	actor := appctx.GetActor(c.Request.Context())
	if actor == nil || !actor.IsAdmin {
		h.Error(c, apperror.NewForbidden("admin role required"))
		return
	}

	filter := auth.UserFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if val := c.Query("active"); val != "" {
		active := val == "true"
		filter.IsActive = &active
	}

	users, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.UserResponse, len(users))
	for i := range users {
		items[i] = dto.FromUser(&users[i])
	}
	h.OK(c, dto.ListResponse[dto.UserResponse]{Items: items, Total: total})
}
