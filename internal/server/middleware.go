package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/barberdesk/internal/auditcontext"
	"github.com/smallbiznis/barberdesk/internal/auth"
	obscontext "github.com/smallbiznis/barberdesk/internal/observability/context"
	"go.uber.org/zap"
)

const (
	headerAuthorization  = "Authorization"
	headerIdempotencyKey = "Idempotency-Key"
	actorTypeStaff       = "staff"
)

// Authenticate resolves the bearer token into a principal. With no signing
// secret configured every request passes through anonymously.
func (s *Server) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.tokens.Enabled() {
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(strings.TrimSpace(c.GetHeader(headerAuthorization)), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.tokens.Parse(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := auth.WithPrincipal(c.Request.Context(), principal)
		ctx = auditcontext.WithActor(ctx, actorTypeStaff, principal.StaffID)
		ctx = obscontext.WithActor(ctx, actorTypeStaff, principal.StaffID)
		ctx = obscontext.WithStaffRole(ctx, principal.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.tokens.Enabled() {
			c.Next()
			return
		}
		principal, ok := auth.PrincipalFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), principal.Role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// InvoiceWriteRateLimit throttles invoice writes per staff member, or per
// client address for anonymous callers. Limiter failures let the request
// through.
func (s *Server) InvoiceWriteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if principal, ok := auth.PrincipalFromContext(c.Request.Context()); ok && principal.StaffID != "" {
			key = "staff:" + principal.StaffID
		}

		result, err := s.limiter.AllowClient(c.Request.Context(), key)
		if err != nil {
			s.log.Warn("invoice rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			}
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// SubmissionGuard rejects a create carrying an Idempotency-Key that another
// request is still processing, so a double-clicked checkout cannot take stock
// twice.
func (s *Server) SubmissionGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
		if key == "" || !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		token, acquired, err := s.limiter.TryLockSubmission(ctx, key)
		if err != nil {
			s.log.Warn("submission lock failed", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			AbortWithError(c, ErrConflict)
			return
		}
		defer func() {
			if err := s.limiter.ReleaseSubmission(ctx, key, token); err != nil {
				s.log.Warn("submission unlock failed", zap.Error(err))
			}
		}()
		c.Next()
	}
}
