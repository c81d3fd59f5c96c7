package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"noria.fr/campusnet/pkg/apperror"
)

// GetExternalID retrieves the authenticated caller's external identity id
// from the context. It is set by the auth middleware from the token subject.
func GetExternalID(c *gin.Context) (string, error) {
	externalID, exists := c.Get("external_id")
	if !exists {
		return "", apperror.ErrUnauthorized
	}

	id, ok := externalID.(string)
	if !ok || id == "" {
		return "", apperror.ErrUnauthorized
	}

	return id, nil
}

// OptionalExternalID returns the caller's external id, or "" when the
// request is anonymous. Reads fall back to the unauthenticated view.
func OptionalExternalID(c *gin.Context) string {
	id, err := GetExternalID(c)
	if err != nil {
		return ""
	}
	return id
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		zap.L().Error("internal error", zap.Error(err), zap.String("path", c.FullPath()))
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
