package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careaxis/clinic-api/internal/middleware"
	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/service/appointment"
	"github.com/careaxis/clinic-api/pkg/httputil"
)

type Handler struct {
	service appointment.AppointmentServicer
}

func NewHandler(service appointment.AppointmentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	appts := rg.Group("/appointments")
	{
		appts.POST("", h.CreateAppointment)
		appts.GET("", h.ListAppointments)
		appts.GET("/:id", h.GetAppointment)
		appts.POST("/:id/approve", h.action(model.AppointmentActionApprove))
		appts.POST("/:id/decline", h.action(model.AppointmentActionDecline))
		appts.POST("/:id/complete", h.action(model.AppointmentActionComplete))
		appts.POST("/:id/cancel", h.action(model.AppointmentActionCancel))
	}
}

func actorFrom(c *gin.Context) appointment.Actor {
	return appointment.Actor{
		UserID:         middleware.UserID(c),
		OrganizationID: middleware.OrganizationID(c),
		Role:           middleware.Role(c),
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	a, err := h.service.CreateAppointment(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, a)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	a, err := h.service.GetAppointment(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, a)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{
		Status: model.AppointmentStatus(c.Query("status")),
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}
		filters.StartDate = t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}
		filters.EndDate = t
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), actorFrom(c), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

// action builds a handler for one lifecycle endpoint. All four share the
// same shape: parse the ID, delegate to the service, map the error.
func (h *Handler) action(action model.AppointmentAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}

		a, err := h.service.Transition(c.Request.Context(), actorFrom(c), id, action)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, a)
	}
}
