// api/routes/router.go
package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"clientregistry/docs"
	"clientregistry/internal/audit"
	"clientregistry/internal/auth"
	"clientregistry/internal/clients"
	"clientregistry/internal/shared/config"
	"clientregistry/internal/shared/database"
	"clientregistry/pkg/cache"
	"clientregistry/pkg/logger"
)

const serviceName = "clientregistry"

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	keys   *auth.KeySet
	log    *logger.Logger

	verifier      auth.TokenVerifier
	authz         auth.Authorizer
	authService   auth.Service
	clientRepo    clients.Repository
	clientService clients.Service
	audit         audit.Publisher
}

// NewRouter wires services once; keys must already be loaded and are never
// replaced afterwards.
func NewRouter(cfg *config.Config, db *database.DB, keys *auth.KeySet, pub audit.Publisher, log *logger.Logger) (*Router, error) {
	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordAlgorithm, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}

	clientRepo := clients.NewRepository(db.GetPostgreSQL())
	store := auth.NewResilientStore(clients.NewCredentialStore(clientRepo), auth.StoreOptions{
		Timeout:      cfg.Auth.StoreTimeout,
		MaxRetries:   cfg.Auth.StoreMaxRetries,
		RetryBackoff: cfg.Auth.StoreRetryBackoff,
	}, log)

	issuer := auth.NewTokenIssuer(keys, cfg.JWT.Issuer)
	verifier := auth.NewTokenVerifier(keys, cfg.JWT.Issuer, auth.WithClockSkew(cfg.JWT.ClockSkew))

	authService, err := auth.NewService(store, hasher, issuer, pub, log)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	return &Router{
		config:        cfg,
		db:            db,
		keys:          keys,
		log:           log,
		verifier:      verifier,
		authz:         auth.NewAuthorizer(store, pub, log),
		authService:   authService,
		clientRepo:    clientRepo,
		clientService: clients.NewService(clientRepo, hasher, cache.NewService(db.GetRedisClient()), pub, log),
		audit:         pub,
	}, nil
}

// BootstrapAdmin creates the configured administrator when it is missing.
func (r *Router) BootstrapAdmin(ctx context.Context) error {
	if !r.config.Admin.Bootstrap {
		return nil
	}
	return clients.BootstrapAdmin(ctx, r.clientService, r.clientRepo, clients.AdminSeed{
		Name:     r.config.Admin.Name,
		Email:    r.config.Admin.Email,
		Password: r.config.Admin.Password,
		Birthday: r.config.Admin.Birthday,
		Phone:    r.config.Admin.Phone,
		CPF:      r.config.Admin.CPF,
	}, r.log)
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)
	r.setupDocsRoutes(engine)

	requireAuth := auth.RequireAuth(r.verifier, r.audit, r.log)

	authRouter := auth.NewRouter(auth.NewController(r.authService, r.keys), requireAuth)
	authRouter.SetupWellKnown(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		authRouter.SetupRoutes(api)

		clientRouter := clients.NewRouter(clients.NewController(r.clientService), requireAuth, r.authz)
		clientRouter.SetupRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			r.log.WithError(err).WarnContext(c.Request.Context(), "health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"timestamp": time.Now(),
				"service":   serviceName,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   serviceName,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"active_kid":  r.keys.ActiveKID(),
			"timestamp":   time.Now(),
		})
	})
}

// setupDocsRoutes serves the OpenAPI document outside production.
func (r *Router) setupDocsRoutes(engine *gin.Engine) {
	if r.config.IsProduction() {
		return
	}
	docs.SwaggerInfo.BasePath = r.config.GetAPIBasePath()
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
