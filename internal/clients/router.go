package clients

import (
	"github.com/gin-gonic/gin"

	"clientregistry/internal/auth"
)

// Router handles client routes
type Router struct {
	controller  Controller
	requireAuth gin.HandlerFunc
	authz       auth.Authorizer
}

func NewRouter(controller Controller, requireAuth gin.HandlerFunc, authz auth.Authorizer) *Router {
	return &Router{
		controller:  controller,
		requireAuth: requireAuth,
		authz:       authz,
	}
}

func (r *Router) SetupRoutes(rg *gin.RouterGroup) {
	// Public
	rg.POST(signPath, r.controller.Sign) // POST /api/v1/auth/sign - self registration

	clients := rg.Group("/clients")
	clients.Use(r.requireAuth)
	{
		adminOnly := auth.RequireRole(r.authz, auth.RoleAdmin)
		clients.POST("", adminOnly, r.controller.CreateClient)                    // POST /api/v1/clients
		clients.GET("", adminOnly, r.controller.ListClients)                      // GET /api/v1/clients?page=&size=&sort=
		clients.GET("/attributes", adminOnly, r.controller.SearchClients)         // GET /api/v1/clients/attributes
		clients.GET("/one-client-attributes", adminOnly, r.controller.FindClient) // GET /api/v1/clients/one-client-attributes

		adminOrOwner := auth.RequireRoleOrOwner(r.authz, auth.RoleAdmin, "id")
		clients.GET("/:id", adminOrOwner, r.controller.GetClient)       // GET /api/v1/clients/:id
		clients.PUT("/:id", adminOrOwner, r.controller.UpdateClient)    // PUT /api/v1/clients/:id
		clients.DELETE("/:id", adminOrOwner, r.controller.DeleteClient) // DELETE /api/v1/clients/:id
	}
}
