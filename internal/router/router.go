package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appointmenth "github.com/careaxis/clinic-api/internal/handler/appointment"
	authh "github.com/careaxis/clinic-api/internal/handler/auth"
	centralh "github.com/careaxis/clinic-api/internal/handler/central"
	healthh "github.com/careaxis/clinic-api/internal/handler/health"
	userh "github.com/careaxis/clinic-api/internal/handler/user"
	"github.com/careaxis/clinic-api/internal/middleware"
	"github.com/careaxis/clinic-api/pkg/auth"
	"github.com/careaxis/clinic-api/pkg/logger"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "clinic_http_request_duration_seconds",
		Help: "HTTP request duration in seconds",
	}, []string{"method", "path", "status"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

type Config struct {
	Timeout   time.Duration
	RateLimit middleware.RateLimitConfig
	CORS      middleware.CORSConfig
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	tenant       *middleware.TenantMiddleware
	healthH      *healthh.Handler
	centralH     *centralh.Handler
	authH        *authh.Handler
	userH        *userh.Handler
	appointmentH *appointmenth.Handler
}

func New(
	log *logger.Logger,
	authMw *middleware.AuthMiddleware,
	tenantMw *middleware.TenantMiddleware,
	healthH *healthh.Handler,
	centralH *centralh.Handler,
	authH *authh.Handler,
	userH *userh.Handler,
	appointmentH *appointmenth.Handler,
	cfg Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.ErrorLogger(log),
		metricsMiddleware(),
		middleware.Timeout(cfg.Timeout),
		middleware.CORS(cfg.CORS),
		middleware.NewRateLimiter(cfg.RateLimit).RateLimit(),
	)

	return &Router{
		engine:       engine,
		auth:         authMw,
		tenant:       tenantMw,
		healthH:      healthH,
		centralH:     centralH,
		authH:        authH,
		userH:        userH,
		appointmentH: appointmentH,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	r.healthH.RegisterRoutes(api)

	// Central realm: platform operators.
	central := api.Group("/central")
	r.centralH.RegisterRoutes(central)

	centralProtected := central.Group("")
	centralProtected.Use(r.auth.Authenticate(auth.RealmCentral))
	r.centralH.RegisterProtectedRoutes(centralProtected)

	// Organization realm: doctors, patients, admins.
	r.authH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(
		r.auth.Authenticate(auth.RealmOrganization),
		r.tenant.VerifyOrganization(),
	)
	r.authH.RegisterProtectedRoutes(protected)
	r.userH.RegisterRoutes(protected, r.auth)
	r.appointmentH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
