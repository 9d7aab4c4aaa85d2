package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/smallbiznis/barberdesk/internal/audit/masking"
	auditcontext "github.com/smallbiznis/barberdesk/internal/auditcontext"
	"github.com/smallbiznis/barberdesk/internal/clock"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
	clock clock.Clock
}

func NewService(p Params) auditdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

// AuditLog appends one entry. Blank actor details are filled from the request
// context, and contact fields in metadata are masked before storage.
func (s *Service) AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	entry := s.newEntry(ctx, actorType, actorID, action, targetType, targetID, metadata)
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("audit insert failed",
			zap.String("action", action),
			zap.String("target_type", entry.TargetType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) newEntry(ctx context.Context, actorType string, actorID *string, action, targetType string, targetID *string, metadata map[string]any) *auditdomain.AuditLog {
	kind, who := resolveActor(ctx, actorType, actorID)

	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := masking.MaskMetadata(metadata)
	if payload == nil {
		payload = map[string]any{}
	}
	if id := auditcontext.RequestIDFromContext(ctx); id != "" {
		payload["request_id"] = id
	}

	return &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  kind,
		ActorID:    who,
		Action:     action,
		TargetType: targetType,
		TargetID:   trimmedPtr(targetID),
		Metadata:   datatypes.JSONMap(payload),
		IPAddress:  nonEmptyPtr(auditcontext.IPAddressFromContext(ctx)),
		UserAgent:  nonEmptyPtr(auditcontext.UserAgentFromContext(ctx)),
		CreatedAt:  s.clock.Now().UTC(),
	}
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	cursor, err := decodeCursor(req.PageToken)
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	size := pagination.NormalizePageSize(req.PageSize)
	rows, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		ActorType:  req.ActorType,
		ActorID:    req.ActorID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      size,
	})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	rows, pageInfo := pagination.Trim(rows, size, encodeCursor)

	out := auditdomain.ListAuditLogResponse{
		PageInfo:  pageInfo,
		AuditLogs: make([]auditdomain.AuditLog, 0, len(rows)),
	}
	for _, row := range rows {
		if row != nil {
			out.AuditLogs = append(out.AuditLogs, *row)
		}
	}
	return out, nil
}

func decodeCursor(token string) (*auditdomain.AuditCursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	raw, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, auditdomain.ErrInvalidPageToken
	}
	at, err := time.Parse(time.RFC3339Nano, raw.CreatedAt)
	if err != nil {
		return nil, auditdomain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(strings.TrimSpace(raw.ID))
	if err != nil || id == 0 {
		return nil, auditdomain.ErrInvalidPageToken
	}
	return &auditdomain.AuditCursor{ID: id, CreatedAt: at}, nil
}

func encodeCursor(row *auditdomain.AuditLog) string {
	token, err := pagination.EncodeCursor(pagination.Cursor{
		ID:        row.ID.String(),
		CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return ""
	}
	return token
}

// resolveActor prefers the explicit actor type; without one the request
// context decides, then "system".
func resolveActor(ctx context.Context, actorType string, actorID *string) (string, *string) {
	actorType = strings.TrimSpace(actorType)
	if actorType == "" {
		ctxType, ctxID := auditcontext.ActorFromContext(ctx)
		actorType = ctxType
		if trimmedPtr(actorID) == nil {
			actorID = nonEmptyPtr(ctxID)
		}
	}
	if actorType == "" {
		actorType = string(auditdomain.ActorTypeSystem)
	}
	return actorType, trimmedPtr(actorID)
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	return nonEmptyPtr(*value)
}

func nonEmptyPtr(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
