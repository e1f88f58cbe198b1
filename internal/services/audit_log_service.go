package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/repositories"
)

const (
	defaultActorType     = "unknown"
	auditLogIDPrefix     = "aud_"
	defaultAuditLogLimit = 50
	maxAuditLogLimit     = 200
)

type auditLogService struct {
	repo   repositories.AuditLogRepository
	clock  func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// AuditLogServiceDeps bundles constructor inputs for the audit writer service.
type AuditLogServiceDeps struct {
	Repository  repositories.AuditLogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// NewAuditLogService creates an audit log writer backed by the supplied repository.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, errors.New("audit log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &auditLogService{
		repo:   deps.Repository,
		clock:  func() time.Time { return clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Record persists an audit log entry. Repository failures are logged and swallowed so the
// mutation that triggered the record still succeeds.
func (s *auditLogService) Record(ctx context.Context, record AuditLogRecord) {
	entry := s.buildEntry(record)
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger(ctx, "audit.append.failed", map[string]any{
			"action": entry.Action,
			"target": entry.TargetRef,
			"error":  err.Error(),
		})
	}
}

func (s *auditLogService) List(ctx context.Context, filter AuditLogFilter) ([]AuditLogEntry, error) {
	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = defaultAuditLogLimit
	case limit > maxAuditLogLimit:
		limit = maxAuditLogLimit
	}
	return s.repo.List(ctx, repositories.AuditLogFilter{
		TargetRef: sanitizeText(filter.TargetRef, 200),
		Action:    sanitizeText(filter.Action, 120),
		Limit:     limit,
	})
}

func (s *auditLogService) buildEntry(record AuditLogRecord) domain.AuditLogEntry {
	occurred := record.OccurredAt
	if occurred.IsZero() {
		occurred = s.clock()
	} else {
		occurred = occurred.UTC()
	}

	entry := domain.AuditLogEntry{
		ID:        auditLogIDPrefix + s.newID(),
		Actor:     sanitizeText(record.Actor, 160),
		ActorType: normalizeActorType(record.ActorType, record.Actor),
		Action:    sanitizeText(record.Action, 120),
		TargetRef: sanitizeText(record.TargetRef, 200),
		RequestID: sanitizeText(record.RequestID, 128),
		CreatedAt: occurred,
	}

	if len(record.Metadata) > 0 {
		meta := make(map[string]any, len(record.Metadata))
		for key, value := range record.Metadata {
			if key = sanitizeText(key, 80); key != "" {
				meta[key] = sanitizeValue(value)
			}
		}
		entry.Metadata = meta
	}

	if len(record.Diff) > 0 {
		diff := make(map[string]any, len(record.Diff))
		for key, change := range record.Diff {
			if key = sanitizeText(key, 80); key == "" {
				continue
			}
			diff[key] = map[string]any{
				"before": sanitizeValue(change.Before),
				"after":  sanitizeValue(change.After),
			}
		}
		entry.Diff = diff
	}

	return entry
}

func normalizeActorType(actorType string, actor string) string {
	normalized := strings.ToLower(strings.TrimSpace(actorType))
	switch normalized {
	case "user", "staff", "system", "service":
		return normalized
	}
	if strings.TrimSpace(actor) == "" {
		return "system"
	}
	return defaultActorType
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case string:
		return sanitizeText(v, 512)
	case fmt.Stringer:
		return sanitizeText(v.String(), 512)
	default:
		return v
	}
}

func sanitizeText(input string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	var builder strings.Builder
	for _, r := range input {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		builder.WriteRune(r)
		if builder.Len() >= limit {
			break
		}
	}
	return builder.String()
}
