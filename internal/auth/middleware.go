package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clientregistry/internal/audit"
	"clientregistry/internal/shared/utils/response"
	"clientregistry/pkg/logger"
)

const (
	ContextKeyClaims = "auth_claims"
	ContextKeyUserID = "user_id"

	MsgInvalidCredentials = "Invalid email or password"
	MsgInvalidToken       = "invalid or expired token"
	MsgForbidden          = "Insufficient permissions"
	MsgNotFound           = "Resource not found"
	MsgUnavailable        = "Service temporarily unavailable"
)

// StatusFor maps auth errors to an HTTP status and a fixed public message.
// The message never depends on the internal reason.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, MsgInvalidCredentials
	case errors.Is(err, ErrUnauthenticated), IsTokenRejection(err):
		return http.StatusUnauthorized, MsgInvalidToken
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, MsgForbidden
	case errors.Is(err, ErrResourceNotFound):
		return http.StatusNotFound, MsgNotFound
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, MsgUnavailable
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// AbortWithError writes the mapped error response and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	code, msg := StatusFor(err)
	response.RespondJSON(c, "error", code, msg, nil, nil)
	c.Abort()
}

// RequireAuth verifies the bearer token and stores its claims on the context.
func RequireAuth(verifier TokenVerifier, pub audit.Publisher, log *logger.Logger) gin.HandlerFunc {
	if pub == nil {
		pub = audit.Nop{}
	}
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, ErrUnauthenticated)
			return
		}

		claims, err := verifier.Verify(raw)
		if err != nil {
			reason := RejectionReason(err)
			log.LogTokenRejected(c.Request.Context(), reason, c.ClientIP(), c.Request.URL.Path)
			pub.Publish(audit.NewEvent(audit.EventTokenRejected).
				WithReason(reason).
				WithIP(c.ClientIP()))
			AbortWithError(c, ErrUnauthenticated)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyUserID, claims.PrincipalID())
		ctx := WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole guards listing and bulk routes.
func RequireRole(authz Authorizer, role RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := ClaimsFromContext(c)
		err := authz.Authorize(c.Request.Context(), Request{
			Claims:       claims,
			RequiredRole: role,
			Policy:       PolicyRoleOnly,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireRoleOrOwner guards single-resource routes; the resource id is read
// from the named path parameter.
func RequireRoleOrOwner(authz Authorizer, role RoleName, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := ClaimsFromContext(c)
		err := authz.Authorize(c.Request.Context(), Request{
			Claims:       claims,
			ResourceID:   c.Param(param),
			RequiredRole: role,
			Policy:       PolicyRoleOrOwner,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func ClaimsFromContext(c *gin.Context) (*ClaimSet, bool) {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*ClaimSet)
	return claims, ok && claims != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
