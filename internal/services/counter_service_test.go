package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hanko-field/orders/internal/repositories"
	"github.com/hanko-field/orders/internal/repositories/memory"
)

type stubCounterRepository struct {
	mu             sync.Mutex
	nextFn         func(context.Context, string, int64) (int64, error)
	configureFn    func(context.Context, string, repositories.CounterConfig) error
	nextCalls      []counterCall
	configureCalls []configureCall
}

type counterCall struct {
	ID   string
	Step int64
}

type configureCall struct {
	ID  string
	Cfg repositories.CounterConfig
}

func (s *stubCounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	s.mu.Lock()
	s.nextCalls = append(s.nextCalls, counterCall{ID: counterID, Step: step})
	s.mu.Unlock()
	if s.nextFn != nil {
		return s.nextFn(ctx, counterID, step)
	}
	return 0, nil
}

func (s *stubCounterRepository) Configure(ctx context.Context, counterID string, cfg repositories.CounterConfig) error {
	s.mu.Lock()
	s.configureCalls = append(s.configureCalls, configureCall{ID: counterID, Cfg: cfg})
	s.mu.Unlock()
	if s.configureFn != nil {
		return s.configureFn(ctx, counterID, cfg)
	}
	return nil
}

func TestCounterServiceNextFormatsAndConfigures(t *testing.T) {
	repo := &stubCounterRepository{}
	repo.nextFn = func(context.Context, string, int64) (int64, error) {
		return 42, nil
	}

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo, Clock: func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		value, err := svc.Next(ctx, "exports", "global", CounterGenerationOptions{
			Step:      5,
			Prefix:    "EXP-",
			PadLength: 4,
		})
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if value.Value != 42 {
			t.Fatalf("expected raw value 42, got %d", value.Value)
		}
		if value.Formatted != "EXP-0042" {
			t.Fatalf("expected formatted EXP-0042, got %s", value.Formatted)
		}
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.configureCalls) != 1 {
		t.Fatalf("expected configure called once, got %d", len(repo.configureCalls))
	}
	if repo.configureCalls[0].ID != "exports-global" || repo.configureCalls[0].Cfg.Step != 5 {
		t.Fatalf("unexpected configure call %+v", repo.configureCalls[0])
	}
}

func TestCounterServiceMapsRepositoryErrors(t *testing.T) {
	repo := &stubCounterRepository{}
	repo.nextFn = func(context.Context, string, int64) (int64, error) {
		return 0, repositories.NewCounterError(repositories.CounterErrorExhausted, "limit", nil)
	}

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	_, err = svc.Next(context.Background(), "test", "limit", CounterGenerationOptions{})
	if !errors.Is(err, ErrCounterExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}

	_, err = svc.Next(context.Background(), " ", "limit", CounterGenerationOptions{})
	if !errors.Is(err, ErrCounterInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestCounterServiceNextOrderNumber(t *testing.T) {
	repo := &stubCounterRepository{}
	repo.nextFn = func(context.Context, string, int64) (int64, error) {
		return 7, nil
	}

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	result, err := svc.NextOrderNumber(context.Background(), time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("next order number: %v", err)
	}
	if result != "ORD-20250102-0007" {
		t.Fatalf("expected formatted order number, got %s", result)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.nextCalls) != 1 {
		t.Fatalf("expected one next call, got %d", len(repo.nextCalls))
	}
	if repo.nextCalls[0].ID != "orders-20250102" {
		t.Fatalf("expected counter id orders-20250102, got %s", repo.nextCalls[0].ID)
	}
	if len(repo.configureCalls) != 1 {
		t.Fatalf("expected the daily counter to be bounded once, got %d configure calls", len(repo.configureCalls))
	}
	cfg := repo.configureCalls[0].Cfg
	if cfg.MaxValue == nil || *cfg.MaxValue != 9999 {
		t.Fatalf("expected max value 9999, got %+v", cfg)
	}
}

func TestCounterServiceOrderNumberUsesBusinessDay(t *testing.T) {
	repo := &stubCounterRepository{}
	repo.nextFn = func(context.Context, string, int64) (int64, error) {
		return 12, nil
	}
	tokyo := time.FixedZone("JST", 9*60*60)

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo, Location: tokyo})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	// 16:30 UTC on Jan 2 is already Jan 3 in Tokyo.
	result, err := svc.NextOrderNumber(context.Background(), time.Date(2025, 1, 2, 16, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("next order number: %v", err)
	}
	if result != "ORD-20250103-0012" {
		t.Fatalf("expected Tokyo-day number, got %s", result)
	}
}

func TestCounterServiceOrderNumberStopsAtFourDigits(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCounterRepository()
	if _, err := repo.Next(ctx, "orders-20250102", 9998); err != nil {
		t.Fatalf("advance counter: %v", err)
	}

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}
	at := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	last, err := svc.NextOrderNumber(ctx, at)
	if err != nil {
		t.Fatalf("next order number: %v", err)
	}
	if last != "ORD-20250102-9999" {
		t.Fatalf("expected ORD-20250102-9999, got %s", last)
	}
	if _, err := svc.NextOrderNumber(ctx, at); !errors.Is(err, ErrCounterExhausted) {
		t.Fatalf("expected exhausted error past 9999, got %v", err)
	}
	next, err := svc.NextOrderNumber(ctx, at.Add(24*time.Hour))
	if err != nil || next != "ORD-20250103-0001" {
		t.Fatalf("expected the next day to start over, got %q, %v", next, err)
	}
}
