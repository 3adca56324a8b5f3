package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinepos/concession-service/internal/domain"
	pkgerrors "github.com/cinepos/concession-service/pkg/errors"
)

// genericVerifyMessage is the only detail verification failures leak to
// callers. Specifics stay in the security log.
const genericVerifyMessage = "Payment verification failed"

// writeError maps a domain error onto the HTTP response. All handlers route
// failures through here so status policy lives in one place.
func writeError(c *gin.Context, err error) {
	code := domain.GetErrorCode(err)

	switch {
	case domain.IsVerificationError(err):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": genericVerifyMessage,
		})

	case domain.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"code":    string(code),
			"message": err.Error(),
		})

	case domain.IsValidationError(err),
		code == domain.ErrorCodeGatewayNotConfigured,
		code == domain.ErrorCodeProviderUnsupported:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"code":    string(code),
			"message": err.Error(),
		})

	case domain.IsGatewayError(err):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"type":    "gateway_error",
			"code":    string(code),
			"message": "payment gateway error",
		})

	case isRawGatewayError(err):
		// Adapter errors that reached the edge without a DomainError wrap,
		// e.g. a verify-time poll or a reconciler fetch.
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"type":    "gateway_error",
			"code":    string(domain.ErrorCodeGatewayError),
			"message": "payment gateway error",
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "internal server error",
		})
	}
}

func isRawGatewayError(err error) bool {
	var gwErr *pkgerrors.GatewayError
	return errors.As(err, &gwErr)
}
