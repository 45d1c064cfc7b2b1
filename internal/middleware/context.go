package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-insight-api/internal/models"
)

// ClaimsFromContext extracts the authenticated caller's claims, or nil when
// the request was not authenticated.
func ClaimsFromContext(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
