package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/logger"
	"github.com/slotbook/backend/internal/interfaces/http/dto"
)

// MerchantIDKey holds the uuid of the merchant the caller operates
const MerchantIDKey = "merchant_id"

// MerchantLookup finds the merchant an identity operates
type MerchantLookup interface {
	GetByOwner(ctx context.Context, identityID uuid.UUID) (*identity.Merchant, error)
}

// CustomerLookup reports whether an identity has a customer account
type CustomerLookup interface {
	Exists(ctx context.Context, identityID uuid.UUID) (bool, error)
}

// RequireUser allows identity tokens and rejects service tokens
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || claims.IsService() || GetIdentityID(c) == uuid.Nil {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// RequireAdmin allows tokens carrying the admin role
func RequireAdmin(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.IsAdmin() {
			denyAdmin(c, log)
			return
		}
		c.Next()
	}
}

// RequireAdminOrService allows admins and service tokens
func RequireAdminOrService(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !(claims.IsAdmin() || claims.IsService()) {
			denyAdmin(c, log)
			return
		}
		c.Next()
	}
}

// RequireMerchant resolves the caller's merchant and scopes the request to it.
// Callers without a merchant get 403.
func RequireMerchant(merchants MerchantLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		identityID := GetIdentityID(c)
		if identityID == uuid.Nil {
			abortForbidden(c)
			return
		}

		merchant, err := merchants.GetByOwner(c.Request.Context(), identityID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				abortForbidden(c)
				return
			}
			abortUpstream(c)
			return
		}

		c.Set(MerchantIDKey, merchant.ID)
		ctx := logger.WithMerchantID(c.Request.Context(), merchant.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireCustomer allows identities that own a customer account
func RequireCustomer(customers CustomerLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		identityID := GetIdentityID(c)
		if identityID == uuid.Nil {
			abortForbidden(c)
			return
		}
		ok, err := customers.Exists(c.Request.Context(), identityID)
		if err != nil {
			abortUpstream(c)
			return
		}
		if !ok {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// GetMerchantID returns the merchant set by RequireMerchant, or uuid.Nil
func GetMerchantID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(MerchantIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// denyAdmin answers with the generic forbidden body so callers learn nothing about the target
func denyAdmin(c *gin.Context, log *zap.Logger) {
	if log != nil {
		log.Warn("Admin access denied",
			zap.String("path", c.Request.URL.Path),
			zap.String("identity_id", GetIdentityID(c).String()),
		)
	}
	abortForbidden(c)
}

func abortForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Forbidden", requestIDOf(c)))
}

func abortUpstream(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUpstreamUnavailable, "Backing service unavailable", requestIDOf(c)))
}
