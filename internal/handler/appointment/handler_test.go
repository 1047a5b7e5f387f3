package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careaxis/clinic-api/internal/middleware"
	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/service/appointment"
	"github.com/careaxis/clinic-api/pkg/apperror"
)

type mockService struct {
	createFn     func(ctx context.Context, actor appointment.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	getFn        func(ctx context.Context, actor appointment.Actor, id uuid.UUID) (*model.Appointment, error)
	listFn       func(ctx context.Context, actor appointment.Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	transitionFn func(ctx context.Context, actor appointment.Actor, id uuid.UUID, action model.AppointmentAction) (*model.Appointment, error)
}

func (m *mockService) CreateAppointment(ctx context.Context, actor appointment.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	return m.createFn(ctx, actor, req)
}
func (m *mockService) GetAppointment(ctx context.Context, actor appointment.Actor, id uuid.UUID) (*model.Appointment, error) {
	return m.getFn(ctx, actor, id)
}
func (m *mockService) ListAppointments(ctx context.Context, actor appointment.Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return m.listFn(ctx, actor, filters)
}
func (m *mockService) Transition(ctx context.Context, actor appointment.Actor, id uuid.UUID, action model.AppointmentAction) (*model.Appointment, error) {
	return m.transitionFn(ctx, actor, id, action)
}

func setupRouter(svc appointment.AppointmentServicer, role model.ProfileKind) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uuid.New())
		c.Set(middleware.ContextOrganizationID, uuid.New())
		c.Set(middleware.ContextRole, string(role))
	})
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	svc := &mockService{
		createFn: func(ctx context.Context, actor appointment.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
			return &model.Appointment{
				Base:                model.Base{ID: uuid.New()},
				DoctorID:            req.DoctorID,
				AppointmentDateTime: req.AppointmentDateTime,
				Status:              model.AppointmentStatusPending,
			}, nil
		},
	}
	engine := setupRouter(svc, model.ProfileKindPatient)

	body, _ := json.Marshal(gin.H{
		"doctor_id":            uuid.New(),
		"appointment_datetime": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	w := doRequest(t, engine, http.MethodPost, "/api/v1/appointments", string(body))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "PENDING")
}

func TestCreateAppointmentEndpointMissingDoctor(t *testing.T) {
	engine := setupRouter(&mockService{}, model.ProfileKindPatient)

	body, _ := json.Marshal(gin.H{
		"appointment_datetime": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	w := doRequest(t, engine, http.MethodPost, "/api/v1/appointments", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionEndpointStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"state error maps to conflict", apperror.State("cannot approve"), http.StatusConflict},
		{"authorization maps to forbidden", apperror.Authorization("not yours"), http.StatusForbidden},
		{"not found maps to 404", apperror.NotFound("appointment"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{
				transitionFn: func(ctx context.Context, actor appointment.Actor, id uuid.UUID, action model.AppointmentAction) (*model.Appointment, error) {
					return nil, tt.err
				},
			}
			engine := setupRouter(svc, model.ProfileKindDoctor)

			w := doRequest(t, engine, http.MethodPost, "/api/v1/appointments/"+uuid.NewString()+"/approve", "")
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestTransitionEndpointHidesAuthorizationDetail(t *testing.T) {
	svc := &mockService{
		transitionFn: func(ctx context.Context, actor appointment.Actor, id uuid.UUID, action model.AppointmentAction) (*model.Appointment, error) {
			return nil, apperror.Authorization("not the doctor of this appointment")
		},
	}
	engine := setupRouter(svc, model.ProfileKindDoctor)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/appointments/"+uuid.NewString()+"/cancel", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	// The response stays generic; the reason is not leaked.
	assert.Contains(t, w.Body.String(), "forbidden")
	assert.NotContains(t, w.Body.String(), "doctor")
}

func TestTransitionEndpointInvalidID(t *testing.T) {
	engine := setupRouter(&mockService{}, model.ProfileKindDoctor)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/appointments/not-a-uuid/approve", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
