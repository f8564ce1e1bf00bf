package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/response"
)

// RegisterCatalogRoutes registers /product and /category. Reads are public,
// writes need the admin role.
func RegisterCatalogRoutes(r gin.IRouter, cfg Config) {
	svc := cfg.Catalog
	admin := auth.RequireRole(auth.RoleAdmin)

	p := r.Group("/product")
	p.GET("/", func(c *gin.Context) {
		items, err := svc.ListProducts(c.Request.Context())
		reply(c, http.StatusOK, "Products", items, err)
	})
	p.GET("/search/:name", func(c *gin.Context) {
		items, err := svc.SearchProducts(c.Request.Context(), c.Param("name"))
		reply(c, http.StatusOK, "Products", items, err)
	})
	p.GET("/:product_id", withID("product_id", func(c *gin.Context, id int64) {
		item, err := svc.GetProduct(c.Request.Context(), id)
		reply(c, http.StatusOK, "Product", item, err)
	}))
	p.POST("/", admin, func(c *gin.Context) {
		var in catalog.ProductInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		item, err := svc.CreateProduct(c.Request.Context(), in)
		reply(c, http.StatusCreated, "Product created", item, err)
	})
	p.PUT("/:product_id", admin, withID("product_id", func(c *gin.Context, id int64) {
		var in catalog.ProductPatch
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		item, err := svc.UpdateProduct(c.Request.Context(), id, in)
		reply(c, http.StatusOK, "Product updated", item, err)
	}))
	p.DELETE("/:product_id", admin, withID("product_id", func(c *gin.Context, id int64) {
		item, err := svc.DeleteProduct(c.Request.Context(), id)
		reply(c, http.StatusOK, "Product deleted", item, err)
	}))
	p.PUT("/updateStatus/:product_id", admin, withID("product_id", func(c *gin.Context, id int64) {
		item, err := svc.ToggleProductStatus(c.Request.Context(), id)
		reply(c, http.StatusOK, "Product status updated", item, err)
	}))
	p.PUT("/updateStock/:product_id", admin, withID("product_id", func(c *gin.Context, id int64) {
		var in catalog.StockAdjustment
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		item, err := svc.AdjustStock(c.Request.Context(), id, in)
		reply(c, http.StatusOK, "Stock updated", item, err)
	}))

	cg := r.Group("/category")
	cg.GET("/", func(c *gin.Context) {
		items, err := svc.ListCategories(c.Request.Context())
		reply(c, http.StatusOK, "Categories", items, err)
	})
	cg.GET("/search/:name", func(c *gin.Context) {
		items, err := svc.SearchCategories(c.Request.Context(), c.Param("name"))
		reply(c, http.StatusOK, "Categories", items, err)
	})
	cg.GET("/:category_id", withID("category_id", func(c *gin.Context, id int64) {
		item, err := svc.GetCategory(c.Request.Context(), id)
		reply(c, http.StatusOK, "Category", item, err)
	}))
	cg.POST("/", admin, func(c *gin.Context) {
		var in catalog.CategoryInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		item, err := svc.CreateCategory(c.Request.Context(), in)
		reply(c, http.StatusCreated, "Category created", item, err)
	})
	cg.PUT("/:category_id", admin, withID("category_id", func(c *gin.Context, id int64) {
		var in catalog.CategoryPatch
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		item, err := svc.UpdateCategory(c.Request.Context(), id, in)
		reply(c, http.StatusOK, "Category updated", item, err)
	}))
	cg.DELETE("/:category_id", admin, withID("category_id", func(c *gin.Context, id int64) {
		item, err := svc.DeleteCategory(c.Request.Context(), id)
		reply(c, http.StatusOK, "Category deleted", item, err)
	}))
	cg.PUT("/updateStatus/:category_id", admin, withID("category_id", func(c *gin.Context, id int64) {
		item, err := svc.ToggleCategoryStatus(c.Request.Context(), id)
		reply(c, http.StatusOK, "Category status updated", item, err)
	}))
}

// withID parses the named id parameter before calling next.
func withID(name string, next func(c *gin.Context, id int64)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, name)
		if err != nil {
			response.Fail(c, err)
			return
		}
		next(c, id)
	}
}

func reply(c *gin.Context, status int, message string, data any, err error) {
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, status, message, data)
}
