package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hanko-field/orders/internal/repositories"
)

type counterState struct {
	value    int64
	step     int64
	maxValue *int64
}

// CounterRepository hands out sequence numbers from process memory.
type CounterRepository struct {
	mu       sync.Mutex
	counters map[string]counterState
}

var _ repositories.CounterRepository = (*CounterRepository)(nil)

// NewCounterRepository constructs an empty counter store.
func NewCounterRepository() *CounterRepository {
	return &CounterRepository{counters: make(map[string]counterState)}
}

func (r *CounterRepository) Next(_ context.Context, counterID string, step int64) (int64, error) {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, repositories.NewCounterError(repositories.CounterErrorInvalidInput, "counter id is required", nil)
	}
	if step < 0 {
		return 0, repositories.NewCounterError(repositories.CounterErrorInvalidInput, fmt.Sprintf("step must be positive, got %d", step), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.counters[id]
	next, increment, err := repositories.AdvanceCounter(id, state.value, state.step, step, state.maxValue)
	if err != nil {
		return 0, err
	}
	state.value = next
	state.step = increment
	r.counters[id] = state
	return next, nil
}

func (r *CounterRepository) Configure(_ context.Context, counterID string, cfg repositories.CounterConfig) error {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return repositories.NewCounterError(repositories.CounterErrorInvalidInput, "counter id is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.counters[id]
	if cfg.Step > 0 {
		state.step = cfg.Step
	}
	if cfg.MaxValue != nil {
		max := *cfg.MaxValue
		state.maxValue = &max
	}
	r.counters[id] = state
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	value := *t
	return &value
}
