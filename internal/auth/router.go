package auth

import (
	"github.com/gin-gonic/gin"
)

// Router handles auth-related routes
type Router struct {
	controller  *Controller
	requireAuth gin.HandlerFunc
}

// NewRouter creates a new auth router
func NewRouter(controller *Controller, requireAuth gin.HandlerFunc) *Router {
	return &Router{
		controller:  controller,
		requireAuth: requireAuth,
	}
}

// SetupRoutes registers all auth routes
func (r *Router) SetupRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/login", r.controller.Login)

		protected := auth.Group("")
		protected.Use(r.requireAuth)
		{
			protected.GET("/me", r.controller.GetMe)
		}
	}
}

// SetupWellKnown exposes the key set outside the versioned API prefix.
func (r *Router) SetupWellKnown(engine *gin.Engine) {
	engine.GET("/.well-known/jwks.json", r.controller.JWKS)
}
