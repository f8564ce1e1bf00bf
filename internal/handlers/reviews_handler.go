package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/response"
	"github.com/imrishuroy/go-storefront/internal/reviews"
)

func RegisterReviewRoutes(r gin.IRouter, cfg Config) {
	svc := cfg.Reviews
	g := r.Group("/review")

	g.POST("/userReview", auth.RequireAuth(), func(c *gin.Context) {
		var in reviews.SubmitInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		res, err := svc.Submit(c.Request.Context(), in, claimsOf(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		// per-item failures are reported in the body
		response.OK(c, http.StatusOK, "Reviews submitted", res)
	})

	g.GET("/productsCanReview/:order_id", auth.RequireAuth(), func(c *gin.Context) {
		id, err := idParam(c, "order_id")
		if err != nil {
			response.Fail(c, err)
			return
		}
		items, err := svc.ReviewableProducts(c.Request.Context(), id, claimsOf(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Products to review", items)
	})

	g.GET("/product/:product_id", func(c *gin.Context) {
		id, err := idParam(c, "product_id")
		if err != nil {
			response.Fail(c, err)
			return
		}
		items, err := svc.ProductReviews(c.Request.Context(), id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Reviews", items)
	})
}
