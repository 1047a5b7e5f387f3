package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/repository"
	"github.com/careaxis/clinic-api/pkg/httputil"
)

// TenantMiddleware checks that the organization in the token still
// exists and is active. Lookups are cached so the check does not add a
// query to every request.
type TenantMiddleware struct {
	orgRepo repository.OrganizationRepository
	cache   *cache.Cache
}

func NewTenantMiddleware(orgRepo repository.OrganizationRepository) *TenantMiddleware {
	return &TenantMiddleware{
		orgRepo: orgRepo,
		cache:   cache.New(time.Minute, 5*time.Minute),
	}
}

func (m *TenantMiddleware) VerifyOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := OrganizationID(c)
		if orgID == uuid.Nil {
			unauthorized(c, "invalid token")
			return
		}

		key := orgID.String()
		if status, found := m.cache.Get(key); found {
			if status.(model.OrganizationStatus) != model.OrganizationStatusActive {
				forbiddenTenant(c)
				return
			}
			c.Next()
			return
		}

		org, err := m.orgRepo.Get(c.Request.Context(), orgID)
		if err != nil {
			forbiddenTenant(c)
			return
		}
		m.cache.Set(key, org.Status, cache.DefaultExpiration)

		if org.Status != model.OrganizationStatusActive {
			forbiddenTenant(c)
			return
		}
		c.Next()
	}
}

func forbiddenTenant(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
		Status:  "error",
		Message: "forbidden",
	})
}
