package auth

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/smallbiznis/barberdesk/internal/clock"
	"github.com/smallbiznis/barberdesk/internal/config"
	staffdomain "github.com/smallbiznis/barberdesk/internal/staff/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type LoginRequest struct {
	StaffID string `json:"staff_id"`
	PIN     string `json:"pin"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Staffs   staffdomain.Service
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	staffs   staffdomain.Service
	auditSvc auditdomain.Service
	tokens   *TokenManager
}

func NewTokenManagerFromConfig(cfg config.Config, clk clock.Clock) *TokenManager {
	return NewTokenManager(cfg.AuthJWTSecret, cfg.AuthJWTIssuer, cfg.AuthTokenTTL, clk.Now)
}

func NewService(p Params, tokens *TokenManager) *Service {
	return &Service{
		log:      p.Log.Named("auth.service"),
		staffs:   p.Staffs,
		auditSvc: p.AuditSvc,
		tokens:   tokens,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	if !s.tokens.Enabled() {
		return LoginResponse{}, ErrDisabled
	}
	staffID := strings.TrimSpace(req.StaffID)
	staff, err := s.staffs.VerifyPIN(ctx, staffID, req.PIN)
	if err != nil {
		s.log.Info("staff login rejected", zap.String("staff_id", staffID))
		s.audit(ctx, auditdomain.ActionStaffLoginRejected, staffID, nil)
		return LoginResponse{}, err
	}

	token, expiresAt, err := s.tokens.Issue(Principal{
		StaffID: staff.ID.String(),
		Name:    staff.Name,
		Role:    staff.Role,
	})
	if err != nil {
		return LoginResponse{}, err
	}

	s.log.Info("staff logged in",
		zap.String("staff_id", staff.ID.String()),
		zap.String("role", staff.Role),
	)
	s.audit(ctx, auditdomain.ActionStaffLogin, staff.ID.String(), map[string]any{"role": staff.Role})
	return LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Role:        staff.Role,
	}, nil
}

// audit records login attempts against the staff member they name. The actor
// is the same staff id since no token exists yet.
func (s *Service) audit(ctx context.Context, action, staffID string, metadata map[string]any) {
	if s.auditSvc == nil || staffID == "" {
		return
	}
	actorID := staffID
	if err := s.auditSvc.AuditLog(ctx, string(auditdomain.ActorTypeStaff), &actorID, action, "staff", &actorID, metadata); err != nil {
		s.log.Warn("login audit failed", zap.String("action", action), zap.Error(err))
	}
}
