package user

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careaxis/clinic-api/internal/middleware"
	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/service/user"
	"github.com/careaxis/clinic-api/pkg/httputil"
)

// Handler manages organization users. All routes are organization-scoped
// and admin-only except the self endpoints.
type Handler struct {
	service user.UserServicer
}

func NewHandler(service user.UserServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	rg.GET("/me", h.GetSelf)
	rg.PUT("/me", h.UpdateSelf)

	users := rg.Group("/users")
	users.Use(auth.RequireRole(model.ProfileKindAdmin))
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.PUT("/:id/profile", h.ReplaceProfile)
	}
}

func (h *Handler) GetSelf(c *gin.Context) {
	u, err := h.service.GetUser(c.Request.Context(), middleware.OrganizationID(c), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

// UpdateSelf lets any authenticated user update their own record
// without the admin role the /users routes require.
func (h *Handler) UpdateSelf(c *gin.Context) {
	var req model.UpdateOrganizationUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.UpdateUser(c.Request.Context(), middleware.OrganizationID(c), middleware.UserID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateOrganizationUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.CreateUser(c.Request.Context(), middleware.OrganizationID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, u)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.GetUser(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	var req model.UpdateOrganizationUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.UpdateUser(c.Request.Context(), middleware.OrganizationID(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), middleware.OrganizationID(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) ListUsers(c *gin.Context) {
	filters := &model.OrganizationUserFilters{
		OrganizationID: middleware.OrganizationID(c),
		Role:           model.ProfileKind(c.Query("role")),
		SearchTerm:     c.Query("search"),
	}

	users, err := h.service.ListUsers(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) ReplaceProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.ReplaceProfile(c.Request.Context(), middleware.OrganizationID(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}
