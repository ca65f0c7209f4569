package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"clientregistry/internal/shared/utils/response"
	"clientregistry/internal/shared/validation"
)

type Controller struct {
	service   Service
	keys      *KeySet
	validator *validator.Validate
}

func NewController(service Service, keys *KeySet) *Controller {
	return &Controller{
		service:   service,
		keys:      keys,
		validator: validation.New(),
	}
}

// Login godoc
// @Summary      Exchange credentials for an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "credentials"
// @Success      200   {object}  response.StandardApiResponse{data=LoginResponse}
// @Failure      401   {object}  response.StandardApiResponse
// @Failure      503   {object}  response.StandardApiResponse
// @Router       /auth/login [post]
func (c *Controller) Login(ctx *gin.Context) {
	// one body for every credential failure, malformed input included
	reject := func(err error) {
		code, msg := StatusFor(err)
		response.RespondJSON(ctx, "error", code, msg, nil, nil)
	}

	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		reject(ErrInvalidCredentials)
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		reject(ErrInvalidCredentials)
		return
	}

	reqCtx := WithClientIP(ctx.Request.Context(), ctx.ClientIP())
	token, err := c.service.Authenticate(reqCtx, req.Email, req.Password)
	if err != nil {
		reject(err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", LoginResponse{
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
	}, nil)
}

// GetMe godoc
// @Summary      Describe the caller's token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.StandardApiResponse{data=MeResponse}
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /auth/me [get]
func (c *Controller) GetMe(ctx *gin.Context) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		AbortWithError(ctx, ErrUnauthenticated)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Token is valid", newMeResponse(claims), nil)
}

// JWKS serves the public verification keys.
func (c *Controller) JWKS(ctx *gin.Context) {
	ctx.Header("Cache-Control", "public, max-age=300")
	ctx.JSON(http.StatusOK, c.keys.JWKS())
}
