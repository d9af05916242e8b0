package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kas-kelas-api/internal/middleware"
	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
	"github.com/noah-isme/kas-kelas-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims writes 401 and returns nil when the request carries no claims.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

// requireStudent writes 403 for callers that are not tied to a student record.
func requireStudent(c *gin.Context) *models.JWTClaims {
	claims := requireClaims(c)
	if claims == nil {
		return nil
	}
	if claims.StudentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "only students can do this"))
		return nil
	}
	return claims
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return models.NormalizePage(page, size)
}

func respondWithMeta(c *gin.Context, data interface{}, pagination *models.Pagination) {
	response.JSON(c, http.StatusOK, data, pagination, middleware.ExtractMeta(c))
}
