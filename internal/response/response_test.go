package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-storefront/internal/apperr"
)

func serve(h gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestOK(t *testing.T) {
	w := serve(func(c *gin.Context) { OK(c, http.StatusCreated, "created", gin.H{"id": 1}) })

	assert.Equal(t, http.StatusCreated, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "created", env.Message)
}

func TestFail_StockError(t *testing.T) {
	w := serve(func(c *gin.Context) { Fail(c, apperr.InsufficientStock([]int64{4})) })

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Success bool      `json:"success"`
		Message string    `json:"message"`
		Data    ErrorData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, apperr.KindInsufficientStock, body.Data.Kind)
	assert.Equal(t, []int64{4}, body.Data.ProductIDs)
}

func TestFail_HidesInternalErrors(t *testing.T) {
	w := serve(func(c *gin.Context) { Fail(c, errors.New("dynamodb: throttled")) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "throttled")
}

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindValidation:        http.StatusBadRequest,
		apperr.KindUnauthenticated:   http.StatusUnauthorized,
		apperr.KindPermissionDenied:  http.StatusForbidden,
		apperr.KindProductsNotFound:  http.StatusNotFound,
		apperr.KindIllegalTransition: http.StatusConflict,
		apperr.KindIllegalState:      http.StatusUnprocessableEntity,
		apperr.KindStore:             http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(kind), kind)
	}
}
