package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/pkg/auth"
	"github.com/careaxis/clinic-api/pkg/httputil"
)

const (
	ContextUserID         = "user_id"
	ContextOrganizationID = "organization_id"
	ContextEmail          = "email"
	ContextRole           = "role"
)

type AuthMiddleware struct {
	jwtSvc auth.JWTService
}

func NewAuthMiddleware(jwtSvc auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc}
}

// Authenticate validates the bearer token and requires it to belong to
// the given realm. Claims are copied onto the gin context for handlers.
func (m *AuthMiddleware) Authenticate(realm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(c, "invalid authorization format")
			return
		}

		claims, err := m.jwtSvc.ValidateToken(parts[1])
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}
		if claims.Realm != realm {
			unauthorized(c, "invalid token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		if claims.OrganizationID != nil {
			c.Set(ContextOrganizationID, *claims.OrganizationID)
		}
		c.Next()
	}
}

// RequireRole restricts a route to organization users holding one of the
// given roles. It must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.ProfileKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := model.ProfileKind(c.GetString(ContextRole))
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
			Status:  "error",
			Message: "forbidden",
		})
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
		Status:  "error",
		Message: msg,
	})
}

// UserID returns the authenticated user's ID from the gin context.
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// OrganizationID returns the authenticated user's organization from the
// gin context, or uuid.Nil for central-realm tokens.
func OrganizationID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextOrganizationID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// Role returns the authenticated user's role from the gin context.
func Role(c *gin.Context) model.ProfileKind {
	return model.ProfileKind(c.GetString(ContextRole))
}
