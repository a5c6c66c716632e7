package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-ops-api/internal/middleware"
	"github.com/noah-isme/academy-ops-api/internal/models"
)

// claimsFromContext extracts the authenticated staff claims set by the JWT
// middleware. Returns nil on unauthenticated routes.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, _ := c.Value(middleware.ContextUserKey).(*models.JWTClaims)
	return claims
}
