package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/logger"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/response"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type cancelRequest struct {
	Description string `json:"description"`
}

// RegisterOrdersRoutes registers routes for order API.
func RegisterOrdersRoutes(r gin.IRouter, cfg Config) {
	svc := cfg.Orders
	observe := func(op string, err error) {
		if cfg.Metrics == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = string(apperr.KindOf(err))
		}
		cfg.Metrics.ObserveOrder(op, outcome)
	}

	g := r.Group("/order")

	g.POST("/create", func(c *gin.Context) {
		ctx := c.Request.Context()

		var in orders.CreateOrderInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}

		// Idempotency key is optional; when present it must be usable as a table key
		idempKey := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if idempKey != "" && (cfg.Idempotency == nil || !idempotency.ValidKey(idempKey)) {
			response.Fail(c, apperr.Validation("invalid Idempotency-Key header", IdempotencyKeyHeader))
			return
		}

		o, err := svc.Create(ctx, in, claimsOf(c), idempKey)
		if errors.Is(err, orders.ErrDuplicateRequest) {
			observe("create", nil)
			replay(c, cfg.Idempotency, idempKey, claimsOf(c))
			return
		}
		observe("create", err)
		if err != nil {
			response.Fail(c, err)
			return
		}

		body, err := json.Marshal(response.Envelope{Success: true, Message: "Order created", Data: o})
		if err != nil {
			response.Fail(c, apperr.Store("encode response", err))
			return
		}
		if idempKey != "" {
			// the order is committed; a failed MarkDone only means duplicates get 202 until the key expires
			if err := cfg.Idempotency.MarkDone(ctx, idempKey, string(body), http.StatusCreated); err != nil {
				logger.FromContext(ctx).Error("mark idempotency key done failed",
					zap.String("idempotency_key", idempKey),
					zap.Int64("order_id", o.OrderID),
					zap.Error(err),
				)
			}
		}

		c.Header("Location", fmt.Sprintf("/order/%d/detail", o.OrderID))
		c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
	})

	g.GET("/", auth.RequireRole(auth.RoleAdmin), func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), claimsOf(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Orders", items)
	})

	g.GET("/:order_id/detail", auth.RequireAuth(), func(c *gin.Context) {
		id, err := idParam(c, "order_id")
		if err != nil {
			response.Fail(c, err)
			return
		}
		detail, err := svc.Get(c.Request.Context(), id, claimsOf(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Order detail", detail)
	})

	g.PUT("/:order_id/cancel", auth.RequireAuth(), func(c *gin.Context) {
		id, err := idParam(c, "order_id")
		if err != nil {
			response.Fail(c, err)
			return
		}
		// body is optional
		var req cancelRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Fail(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}
		o, err := svc.Cancel(c.Request.Context(), id, req.Description, claimsOf(c))
		observe("cancel", err)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Order canceled", o)
	})

	g.GET("/user/:user_id", auth.RequireAuth(), func(c *gin.Context) {
		userID, err := idParam(c, "user_id")
		if err != nil {
			response.Fail(c, err)
			return
		}
		items, err := svc.ListByUser(c.Request.Context(), userID, claimsOf(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Orders", items)
	})

	updateStatus := func(c *gin.Context) {
		id, err := idParam(c, "order_id")
		if err != nil {
			response.Fail(c, err)
			return
		}
		// query string for GET, JSON body for PUT
		var in orders.StatusUpdate
		if err := c.ShouldBind(&in); err != nil {
			response.Fail(c, apperr.Validation("invalid status update: "+err.Error(), "status"))
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), id, in, claimsOf(c))
		observe("update_status", err)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Order status updated", o)
	}
	g.GET("/updateStatus/:order_id", auth.RequireRole(auth.RoleAdmin), updateStatus)
	g.PUT("/updateStatus/:order_id", auth.RequireRole(auth.RoleAdmin), updateStatus)
}

// replay answers a repeated create from the same requester. A finished
// request gets its stored response back; one still in flight gets 202.
// Anyone else reusing the key gets Conflict and no order data.
func replay(c *gin.Context, store IdempotencyStore, key string, claims *auth.Claims) {
	rec, err := store.Get(c.Request.Context(), key)
	if err != nil {
		response.Fail(c, apperr.Store("idempotency lookup", err))
		return
	}
	if rec == nil {
		// expired but not yet swept by TTL
		response.Fail(c, apperr.Conflict("idempotency key %q was already used", key))
		return
	}
	var requester *int64
	if claims != nil {
		requester = &claims.UserID
	}
	if !rec.SameRequester(requester) {
		response.Fail(c, apperr.Conflict("idempotency key %q was already used", key))
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" && json.Valid([]byte(rec.ResponseBody)) {
			c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			return
		}
		response.OK(c, http.StatusOK, "Order already created", gin.H{"order_id": rec.OrderID})
	default:
		response.OK(c, http.StatusAccepted, "request already in progress", gin.H{"order_id": rec.OrderID})
	}
}
