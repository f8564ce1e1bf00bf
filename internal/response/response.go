package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/logger"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorData is the data of a failed response.
type ErrorData struct {
	Kind       apperr.Kind `json:"kind"`
	Fields     []string    `json:"fields,omitempty"`
	ProductIDs []int64     `json:"product_ids,omitempty"`
}

func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes err as an error envelope with the status derived from its kind.
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)

	msg := err.Error()
	data := ErrorData{Kind: kind}
	if e, ok := apperr.As(err); ok {
		data.Fields = e.Fields
		data.ProductIDs = e.ProductIDs
		msg = e.Message
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: msg, Data: data})
}

func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindPermissionDenied:
		return http.StatusForbidden
	case apperr.KindNotFound, apperr.KindProductsNotFound:
		return http.StatusNotFound
	case apperr.KindAlreadyExists, apperr.KindConflict, apperr.KindIllegalTransition:
		return http.StatusConflict
	case apperr.KindInsufficientStock, apperr.KindIllegalState, apperr.KindProductNotInOrder:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
