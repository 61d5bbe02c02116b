package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nurse-roster-api/internal/middleware"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
	"github.com/noah-isme/nurse-roster-api/pkg/response"
)

// actorFromContext resolves the authenticated caller, writing a 401 when absent.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

func bindJSON(c *gin.Context, dest interface{}, what string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid "+what+" payload"))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid query parameters"))
		return false
	}
	return true
}
