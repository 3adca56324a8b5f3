package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinepos/concession-service/internal/domain"
	pkgerrors "github.com/cinepos/concession-service/pkg/errors"
)

func writeToRecorder(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.ReleaseMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	writeError(c, err)
	return w
}

func TestWriteError_RawGatewayErrorIs502(t *testing.T) {
	err := pkgerrors.NewGatewayError("razorpay", "NETWORK_ERROR", "request failed",
		pkgerrors.CategoryNetworkError, true)

	w := writeToRecorder(err)
	require.Equal(t, http.StatusBadGateway, w.Code)
	payload := decode(t, w)
	assert.Equal(t, "gateway_error", payload["type"])
	assert.Equal(t, false, payload["success"])
}

func TestWriteError_WrappedGatewayErrorIs502(t *testing.T) {
	inner := pkgerrors.NewGatewayError("cashfree", "SERVER_ERROR", "upstream 500",
		pkgerrors.CategorySystemError, true)

	w := writeToRecorder(fmt.Errorf("fetch status: %w", inner))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "gateway_error", decode(t, w)["type"])
}

func TestWriteError_DomainGatewayErrorIs502(t *testing.T) {
	err := domain.WrapError(domain.ErrorCodeGatewayError, "gateway order creation failed",
		pkgerrors.NewGatewayError("razorpay", "BAD_GATEWAY", "boom", pkgerrors.CategorySystemError, true))

	w := writeToRecorder(err)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "gateway_error", decode(t, w)["type"])
}
