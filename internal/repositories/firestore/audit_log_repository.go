package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/hanko-field/orders/internal/domain"
	pfirestore "github.com/hanko-field/orders/internal/platform/firestore"
	"github.com/hanko-field/orders/internal/repositories"
)

const (
	auditLogsCollection = "auditLogs"
	defaultAuditLimit   = 100
)

type auditLogDocument struct {
	Actor     string         `firestore:"actor"`
	ActorType string         `firestore:"actorType"`
	Action    string         `firestore:"action"`
	TargetRef string         `firestore:"targetRef"`
	Metadata  map[string]any `firestore:"metadata,omitempty"`
	Diff      map[string]any `firestore:"diff,omitempty"`
	RequestID string         `firestore:"requestId,omitempty"`
	CreatedAt time.Time      `firestore:"createdAt"`
}

// AuditLogRepository appends immutable audit entries to the auditLogs collection.
type AuditLogRepository struct {
	base *pfirestore.BaseRepository[auditLogDocument]
}

var _ repositories.AuditLogRepository = (*AuditLogRepository)(nil)

// NewAuditLogRepository constructs a Firestore-backed audit log repository.
func NewAuditLogRepository(provider *pfirestore.Provider) (*AuditLogRepository, error) {
	if provider == nil {
		return nil, errors.New("audit log repository: firestore provider is required")
	}
	return &AuditLogRepository{
		base: pfirestore.NewBaseRepository[auditLogDocument](provider, auditLogsCollection, nil, nil),
	}, nil
}

// Append stores the entry under its id. Entries are never overwritten.
func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	if r == nil || r.base == nil {
		return errors.New("audit log repository not initialised")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return errors.New("audit log repository: entry id is required")
	}
	_, err := r.base.Create(ctx, id, auditLogDocument{
		Actor:     entry.Actor,
		ActorType: entry.ActorType,
		Action:    entry.Action,
		TargetRef: entry.TargetRef,
		Metadata:  entry.Metadata,
		Diff:      entry.Diff,
		RequestID: entry.RequestID,
		CreatedAt: entry.CreatedAt.UTC(),
	})
	return err
}

// List returns the newest entries for a target, optionally narrowed by action.
func (r *AuditLogRepository) List(ctx context.Context, filter repositories.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("audit log repository not initialised")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if target := strings.TrimSpace(filter.TargetRef); target != "" {
			q = q.Where("targetRef", "==", target)
		}
		if action := strings.TrimSpace(filter.Action); action != "" {
			q = q.Where("action", "==", action)
		}
		return q.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}
	entries := make([]domain.AuditLogEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, domain.AuditLogEntry{
			ID:        doc.ID,
			Actor:     doc.Data.Actor,
			ActorType: doc.Data.ActorType,
			Action:    doc.Data.Action,
			TargetRef: doc.Data.TargetRef,
			Metadata:  doc.Data.Metadata,
			Diff:      doc.Data.Diff,
			RequestID: doc.Data.RequestID,
			CreatedAt: doc.Data.CreatedAt.UTC(),
		})
	}
	return entries, nil
}
