package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-insight-api/internal/middleware"
	"github.com/noah-isme/lms-insight-api/internal/models"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.ClaimsFromContext(c)
}

// flatError writes an unwrapped error body. The AI-compat endpoints keep the
// legacy payload shape and never use the response envelope.
func flatError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.JSON(appErr.Status, gin.H{"error": appErr.Message})
}
