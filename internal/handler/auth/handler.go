package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/careaxis/clinic-api/internal/middleware"
	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/service/auth"
	"github.com/careaxis/clinic-api/pkg/httputil"
)

// Handler exposes authentication for organization users.
type Handler struct {
	service auth.AuthServicer
}

func NewHandler(service auth.AuthServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	{
		a.POST("/login", h.Login)
		a.POST("/refresh", h.Refresh)
	}
}

// RegisterProtectedRoutes mounts the routes that need a valid token.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", h.Logout)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) Logout(c *gin.Context) {
	err := h.service.Logout(c.Request.Context(), middleware.OrganizationID(c), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"logged_out": true})
}
