package domain

import (
	"time"
)

// Pagination defines page/limit paging inputs for list operations.
type Pagination struct {
	Page  int
	Limit int
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// Contains reports whether value falls inside the inclusive range. Nil bounds are open.
func (r RangeQuery[T]) Contains(value T, less func(a, b T) bool) bool {
	if r.From != nil && less(value, *r.From) {
		return false
	}
	if r.To != nil && less(*r.To, value) {
		return false
	}
	return true
}

// PageInfo describes the position of a page within the full result set.
type PageInfo struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// Page packages list results with offset pagination metadata.
type Page[T any] struct {
	Items []T
	Info  PageInfo
}

// NewPageInfo derives page metadata from the total item count.
func NewPageInfo(page, limit, total int) PageInfo {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageInfo{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Customer is the purchasing account referenced by orders.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditLogEntry stores normalized audit information for admin use.
type AuditLogEntry struct {
	ID        string
	Actor     string
	ActorType string
	Action    string
	TargetRef string
	Metadata  map[string]any
	Diff      map[string]any
	RequestID string
	CreatedAt time.Time
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but the service still answers.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for the readiness endpoint.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Environment string
	Version     string
	Uptime      time.Duration
	GeneratedAt time.Time
}
