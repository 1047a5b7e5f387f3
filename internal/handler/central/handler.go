package central

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/service/central"
	"github.com/careaxis/clinic-api/internal/service/organization"
	"github.com/careaxis/clinic-api/internal/service/user"
	"github.com/careaxis/clinic-api/pkg/httputil"
)

// Handler exposes the central realm: operator accounts and organization
// provisioning.
type Handler struct {
	service central.CentralServicer
	orgSvc  organization.OrganizationServicer
	userSvc user.UserServicer
}

func NewHandler(service central.CentralServicer, orgSvc organization.OrganizationServicer, userSvc user.UserServicer) *Handler {
	return &Handler{
		service: service,
		orgSvc:  orgSvc,
		userSvc: userSvc,
	}
}

// RegisterRoutes mounts the unauthenticated central endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	{
		a.POST("/register", h.Register)
		a.POST("/verify-email", h.VerifyEmail)
		a.POST("/login", h.Login)
		a.POST("/refresh", h.Refresh)
	}
}

// RegisterProtectedRoutes mounts the endpoints behind a central token.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	orgs := rg.Group("/organizations")
	{
		orgs.POST("", h.CreateOrganization)
		orgs.GET("", h.ListOrganizations)
		orgs.GET("/:id", h.GetOrganization)
		orgs.PUT("/:id", h.UpdateOrganization)
		orgs.DELETE("/:id", h.DeleteOrganization)
		orgs.POST("/:id/admins", h.CreateAdmin)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterCentralUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, u)
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	var req model.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"verified": true})
}

func (h *Handler) Login(c *gin.Context) {
	var req model.CentralLoginRequest
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

func (h *Handler) CreateOrganization(c *gin.Context) {
	var req model.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	org, err := h.orgSvc.CreateOrganization(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, org)
}

func (h *Handler) GetOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	org, err := h.orgSvc.GetOrganization(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, org)
}

func (h *Handler) UpdateOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	var req model.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	org, err := h.orgSvc.UpdateOrganization(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, org)
}

func (h *Handler) DeleteOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.orgSvc.DeleteOrganization(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) ListOrganizations(c *gin.Context) {
	orgs, err := h.orgSvc.ListOrganizations(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, orgs)
}

// CreateAdmin bootstraps the first administrator of a freshly provisioned
// organization.
func (h *Handler) CreateAdmin(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	var req model.CreateOrganizationUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	req.DoctorProfile = nil
	req.PatientProfile = nil
	req.AdminProfile = &struct{}{}

	u, err := h.userSvc.CreateUser(c.Request.Context(), orgID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, u)
}
