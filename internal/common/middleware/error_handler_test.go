package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farcaster-claim-backend/internal/common/errors"
)

func newErrorTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.Use(ErrorHandler(zerolog.Nop()))
	return router
}

func TestErrorHandler_PanicReturnsEnvelope(t *testing.T) {
	router := newErrorTestRouter()
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrCodeInternal, resp.Error.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestErrorHandler_RendersAppError(t *testing.T) {
	router := newErrorTestRouter()
	router.GET("/inactive", func(c *gin.Context) {
		c.Error(errors.New(errors.ErrCodeCampaignInactive, "Campaign is not active"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inactive", nil))

	require.Equal(t, http.StatusForbidden, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrCodeCampaignInactive, resp.Error.Code)
}
