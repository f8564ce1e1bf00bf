package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/content"
	"github.com/imrishuroy/go-storefront/internal/response"
)

// RegisterContentRoutes registers /banner and /testimonial.
func RegisterContentRoutes(r gin.IRouter, cfg Config) {
	svc := cfg.Content
	admin := auth.RequireRole(auth.RoleAdmin)

	b := r.Group("/banner")
	b.GET("/", func(c *gin.Context) {
		items, err := svc.ListBanners(c.Request.Context())
		reply(c, http.StatusOK, "Banners", items, err)
	})
	b.GET("/:banner_id", withID("banner_id", func(c *gin.Context, id int64) {
		item, err := svc.GetBanner(c.Request.Context(), id)
		reply(c, http.StatusOK, "Banner", item, err)
	}))
	b.POST("/", admin, func(c *gin.Context) {
		var in content.BannerInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		item, err := svc.CreateBanner(c.Request.Context(), in)
		reply(c, http.StatusCreated, "Banner created", item, err)
	})
	b.PUT("/:banner_id", admin, withID("banner_id", func(c *gin.Context, id int64) {
		var in content.BannerPatch
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		item, err := svc.UpdateBanner(c.Request.Context(), id, in)
		reply(c, http.StatusOK, "Banner updated", item, err)
	}))
	b.DELETE("/:banner_id", admin, withID("banner_id", func(c *gin.Context, id int64) {
		item, err := svc.DeleteBanner(c.Request.Context(), id)
		reply(c, http.StatusOK, "Banner deleted", item, err)
	}))
	b.PUT("/updateStatus/:banner_id", admin, withID("banner_id", func(c *gin.Context, id int64) {
		item, err := svc.ToggleBannerStatus(c.Request.Context(), id)
		reply(c, http.StatusOK, "Banner status updated", item, err)
	}))

	t := r.Group("/testimonial")
	t.GET("/", func(c *gin.Context) {
		items, err := svc.ListTestimonials(c.Request.Context())
		reply(c, http.StatusOK, "Testimonials", items, err)
	})
	t.GET("/:testimonial_id", withID("testimonial_id", func(c *gin.Context, id int64) {
		item, err := svc.GetTestimonial(c.Request.Context(), id)
		reply(c, http.StatusOK, "Testimonial", item, err)
	}))
	t.POST("/", admin, func(c *gin.Context) {
		var in content.TestimonialInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		item, err := svc.CreateTestimonial(c.Request.Context(), in)
		reply(c, http.StatusCreated, "Testimonial created", item, err)
	})
	t.PUT("/:testimonial_id", admin, withID("testimonial_id", func(c *gin.Context, id int64) {
		var in content.TestimonialPatch
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		item, err := svc.UpdateTestimonial(c.Request.Context(), id, in)
		reply(c, http.StatusOK, "Testimonial updated", item, err)
	}))
	t.DELETE("/:testimonial_id", admin, withID("testimonial_id", func(c *gin.Context, id int64) {
		item, err := svc.DeleteTestimonial(c.Request.Context(), id)
		reply(c, http.StatusOK, "Testimonial deleted", item, err)
	}))
	t.PUT("/updateStatus/:testimonial_id", admin, withID("testimonial_id", func(c *gin.Context, id int64) {
		item, err := svc.ToggleTestimonialStatus(c.Request.Context(), id)
		reply(c, http.StatusOK, "Testimonial status updated", item, err)
	}))
}
