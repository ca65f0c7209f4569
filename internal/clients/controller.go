package clients

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"clientregistry/internal/auth"
	"clientregistry/internal/shared/utils/response"
	"clientregistry/internal/shared/validation"
)

const signPath = "/auth/sign"

type Controller interface {
	Sign(c *gin.Context)
	CreateClient(c *gin.Context)
	GetClient(c *gin.Context)
	UpdateClient(c *gin.Context)
	DeleteClient(c *gin.Context)
	ListClients(c *gin.Context)
	SearchClients(c *gin.Context)
	FindClient(c *gin.Context)
}

type controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) Controller {
	return &controller{service: service, validator: validation.New()}
}

// Sign godoc
// @Summary      Self registration
// @Description  Creates a client with the USER role.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      CreateClientRequest  true  "client"
// @Success      201   {object}  response.StandardApiResponse{data=ClientResponse}
// @Failure      409   {object}  response.StandardApiResponse
// @Failure      422   {object}  response.StandardApiResponse{errors=[]response.FieldError}
// @Router       /auth/sign [post]
func (ctrl *controller) Sign(c *gin.Context) {
	ctrl.create(c, auth.DefaultRole)
}

// CreateClient godoc
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      CreateClientRequest  true  "client"
// @Success      201   {object}  response.StandardApiResponse{data=ClientResponse}
// @Failure      403   {object}  response.StandardApiResponse
// @Failure      409   {object}  response.StandardApiResponse
// @Failure      422   {object}  response.StandardApiResponse{errors=[]response.FieldError}
// @Router       /clients [post]
func (ctrl *controller) CreateClient(c *gin.Context) {
	ctrl.create(c, auth.DefaultRole)
}

func (ctrl *controller) create(c *gin.Context, role auth.RoleName) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, nil)
		return
	}
	if err := ctrl.validator.Struct(&req); err != nil {
		response.RespondValidation(c, err)
		return
	}

	ctx := auth.WithClientIP(c.Request.Context(), c.ClientIP())
	client, err := ctrl.service.CreateClient(ctx, req, role)
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	c.Header("Location", location(c, client.ID))
	response.RespondJSON(c, "success", http.StatusCreated, "Client created successfully", client, nil)
}

// GetClient godoc
// @Summary      Get a client
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "client id"
// @Success      200  {object}  response.StandardApiResponse{data=ClientResponse}
// @Failure      403  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /clients/{id} [get]
func (ctrl *controller) GetClient(c *gin.Context) {
	id, ok := ctrl.clientID(c)
	if !ok {
		return
	}

	client, err := ctrl.service.GetClientByID(c.Request.Context(), id)
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Client retrieved successfully", client, nil)
}

// UpdateClient godoc
// @Summary      Update a client
// @Description  Only the fields present in the body change. A new password is re-hashed.
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "client id"
// @Param        body  body      UpdateClientRequest  true  "fields to change"
// @Success      200   {object}  response.StandardApiResponse{data=ClientResponse}
// @Failure      404   {object}  response.StandardApiResponse
// @Failure      409   {object}  response.StandardApiResponse
// @Failure      422   {object}  response.StandardApiResponse{errors=[]response.FieldError}
// @Router       /clients/{id} [put]
func (ctrl *controller) UpdateClient(c *gin.Context) {
	id, ok := ctrl.clientID(c)
	if !ok {
		return
	}

	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, nil)
		return
	}
	if err := ctrl.validator.Struct(&req); err != nil {
		response.RespondValidation(c, err)
		return
	}

	client, err := ctrl.service.UpdateClient(c.Request.Context(), id, req)
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Client updated successfully", client, nil)
}

// DeleteClient godoc
// @Summary      Delete a client
// @Tags         clients
// @Security     BearerAuth
// @Param        id  path  string  true  "client id"
// @Success      204
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /clients/{id} [delete]
func (ctrl *controller) DeleteClient(c *gin.Context) {
	id, ok := ctrl.clientID(c)
	if !ok {
		return
	}

	if err := ctrl.service.DeleteClient(c.Request.Context(), id); err != nil {
		ctrl.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListClients godoc
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int     false  "page, starting at 0"
// @Param        size  query     int     false  "page size (max 100)"
// @Param        sort  query     string  false  "field[,asc|desc]"
// @Success      200   {object}  response.StandardApiResponse{data=PaginatedClients}
// @Failure      403   {object}  response.StandardApiResponse
// @Router       /clients [get]
func (ctrl *controller) ListClients(c *gin.Context) {
	var q PageQuery
	if !ctrl.bindQuery(c, &q) {
		return
	}

	page, err := ctrl.service.ListClients(c.Request.Context(), q)
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Clients retrieved successfully", page, nil)
}

// SearchClients godoc
// @Summary      Search clients by attributes
// @Description  Every filter is optional; dates use YYYY-MM-DD.
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        name           query     string  false  "partial, case insensitive"
// @Param        email          query     string  false  "exact"
// @Param        cpf            query     string  false  "exact"
// @Param        phone          query     string  false  "exact"
// @Param        birthdayStart  query     string  false  "inclusive lower bound"
// @Param        birthdayEnd    query     string  false  "inclusive upper bound"
// @Param        page           query     int     false  "page, starting at 0"
// @Param        size           query     int     false  "page size (max 100)"
// @Param        sort           query     string  false  "field[,asc|desc]"
// @Success      200            {object}  response.StandardApiResponse{data=PaginatedClients}
// @Router       /clients/attributes [get]
func (ctrl *controller) SearchClients(c *gin.Context) {
	var q SearchQuery
	if !ctrl.bindQuery(c, &q) {
		return
	}

	page, err := ctrl.service.SearchClients(c.Request.Context(), q)
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Clients retrieved successfully", page, nil)
}

// FindClient godoc
// @Summary      Find exactly one client by attributes
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        name      query     string  false  "exact, case insensitive"
// @Param        email     query     string  false  "exact"
// @Param        cpf       query     string  false  "exact"
// @Param        phone     query     string  false  "exact"
// @Param        birthday  query     string  false  "YYYY-MM-DD"
// @Success      200       {object}  response.StandardApiResponse{data=ClientResponse}
// @Failure      404       {object}  response.StandardApiResponse
// @Failure      409       {object}  response.StandardApiResponse
// @Router       /clients/one-client-attributes [get]
func (ctrl *controller) FindClient(c *gin.Context) {
	var q ExactQuery
	if !ctrl.bindQuery(c, &q) {
		return
	}

	client, err := ctrl.service.FindClient(c.Request.Context(), q)
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Client retrieved successfully", client, nil)
}

func (ctrl *controller) bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, nil)
		return false
	}
	if err := ctrl.validator.Struct(dest); err != nil {
		response.RespondValidation(c, err)
		return false
	}
	return true
}

// clientID reports a malformed id as not found, the same answer the
// ownership check gives.
func (ctrl *controller) clientID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusNotFound, ErrClientNotFound.Error(), nil, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (ctrl *controller) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrClientNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, err.Error(), nil, nil)
	case errors.Is(err, ErrEmailExists), errors.Is(err, ErrCPFExists), errors.Is(err, ErrAmbiguousMatch):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, nil)
	case errors.Is(err, ErrPasswordTooLong):
		response.RespondJSON(c, "error", http.StatusUnprocessableEntity, "Validation failed", nil,
			[]response.FieldError{{Field: "password", Message: "must be at most 72 bytes"}})
	case errors.Is(err, ErrInvalidQuery):
		response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
	default:
		_ = c.Error(err)
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Internal server error", nil, nil)
	}
}

func location(c *gin.Context, id string) string {
	base := c.Request.URL.Path
	if strings.HasSuffix(base, signPath) {
		base = strings.TrimSuffix(base, signPath) + "/clients"
	}
	return strings.TrimSuffix(base, "/") + "/" + id
}
