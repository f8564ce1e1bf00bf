package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/response"
	"github.com/imrishuroy/go-storefront/internal/users"
)

func RegisterUserRoutes(r gin.IRouter, cfg Config) {
	svc := cfg.Users
	admin := auth.RequireRole(auth.RoleAdmin)
	g := r.Group("/user")

	g.POST("/register", func(c *gin.Context) {
		var in users.RegisterInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		u, err := svc.Register(c.Request.Context(), in)
		reply(c, http.StatusCreated, "Registered", u, err)
	})
	g.POST("/login", func(c *gin.Context) {
		var in users.LoginInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		res, err := svc.Login(c.Request.Context(), in)
		reply(c, http.StatusOK, "Logged in", res, err)
	})

	g.GET("/", admin, func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), claimsOf(c))
		reply(c, http.StatusOK, "Users", items, err)
	})
	g.POST("/", admin, func(c *gin.Context) {
		var in users.CreateInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		u, err := svc.Create(c.Request.Context(), in, claimsOf(c))
		reply(c, http.StatusCreated, "User created", u, err)
	})
	g.GET("/:user_id", auth.RequireAuth(), withID("user_id", func(c *gin.Context, id int64) {
		u, err := svc.Get(c.Request.Context(), id, claimsOf(c))
		reply(c, http.StatusOK, "User", u, err)
	}))
	g.PUT("/:user_id", auth.RequireAuth(), withID("user_id", func(c *gin.Context, id int64) {
		var in users.UpdateInput
		if err := bindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		u, err := svc.Update(c.Request.Context(), id, in, claimsOf(c))
		reply(c, http.StatusOK, "User updated", u, err)
	}))
	g.DELETE("/:user_id", admin, withID("user_id", func(c *gin.Context, id int64) {
		u, err := svc.Delete(c.Request.Context(), id, claimsOf(c))
		reply(c, http.StatusOK, "User deleted", u, err)
	}))
	g.PUT("/updateStatus/:user_id", admin, withID("user_id", func(c *gin.Context, id int64) {
		u, err := svc.ToggleStatus(c.Request.Context(), id, claimsOf(c))
		reply(c, http.StatusOK, "User status updated", u, err)
	}))
}
