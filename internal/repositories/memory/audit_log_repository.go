package memory

import (
	"context"
	"maps"
	"sync"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/repositories"
)

// AuditLogRepository keeps an append-only audit trail in memory.
type AuditLogRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditLogEntry
}

var _ repositories.AuditLogRepository = (*AuditLogRepository)(nil)

// NewAuditLogRepository constructs an empty audit trail.
func NewAuditLogRepository() *AuditLogRepository {
	return &AuditLogRepository{}
}

func (r *AuditLogRepository) Append(_ context.Context, entry domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.ID == entry.ID {
			return conflict("audit_logs.append", "entry "+entry.ID+" already exists")
		}
	}
	entry.Metadata = maps.Clone(entry.Metadata)
	entry.Diff = maps.Clone(entry.Diff)
	r.entries = append(r.entries, entry)
	return nil
}

// List returns matching entries newest first.
func (r *AuditLogRepository) List(_ context.Context, filter repositories.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.AuditLogEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if filter.TargetRef != "" && entry.TargetRef != filter.TargetRef {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		out = append(out, entry)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
