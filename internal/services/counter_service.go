package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hanko-field/orders/internal/repositories"
)

var (
	// ErrCounterInvalidInput indicates the caller supplied invalid counter parameters.
	ErrCounterInvalidInput = errors.New("counter: invalid input")
	// ErrCounterExhausted indicates the requested counter cannot increment further due to max bounds.
	ErrCounterExhausted = errors.New("counter: exhausted")
)

const (
	orderCounterScope = "orders"
	// maxOrderSequence keeps the daily sequence at four digits so numbers sort lexically.
	maxOrderSequence int64 = 9999
)

// CounterServiceDeps bundles collaborators required to construct a counter service instance.
type CounterServiceDeps struct {
	Repository repositories.CounterRepository
	Clock      func() time.Time
	// Location is the business time zone that decides which day an order number belongs to.
	Location *time.Location
}

type counterService struct {
	repo       repositories.CounterRepository
	clock      func() time.Time
	location   *time.Location
	configMu   sync.Mutex
	configured map[string]counterConfigSignature
}

type counterConfigSignature struct {
	stepSet  bool
	step     int64
	maxSet   bool
	maxValue int64
}

// NewCounterService constructs a service that manages counter sequences on top of the repository.
func NewCounterService(deps CounterServiceDeps) (CounterService, error) {
	if deps.Repository == nil {
		return nil, errors.New("counter service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	location := deps.Location
	if location == nil {
		location = time.UTC
	}

	return &counterService{
		repo: deps.Repository,
		clock: func() time.Time {
			return clock().UTC()
		},
		location:   location,
		configured: make(map[string]counterConfigSignature),
	}, nil
}

// Next increments the counter identified by scope and name. Counter documents are keyed
// "scope-name".
func (s *counterService) Next(ctx context.Context, scope, name string, opts CounterGenerationOptions) (CounterValue, error) {
	scope = strings.TrimSpace(scope)
	name = strings.TrimSpace(name)
	if scope == "" {
		return CounterValue{}, fmt.Errorf("%w: scope is required", ErrCounterInvalidInput)
	}
	if name == "" {
		return CounterValue{}, fmt.Errorf("%w: name is required", ErrCounterInvalidInput)
	}

	counterID := scope + "-" + name

	if err := s.ensureConfiguration(ctx, counterID, opts); err != nil {
		return CounterValue{}, err
	}

	value, err := s.repo.Next(ctx, counterID, opts.Step)
	if err != nil {
		var counterErr *repositories.CounterError
		if errors.As(err, &counterErr) {
			switch counterErr.Code {
			case repositories.CounterErrorInvalidInput:
				return CounterValue{}, fmt.Errorf("%w: %s", ErrCounterInvalidInput, counterErr.Message)
			case repositories.CounterErrorExhausted:
				return CounterValue{}, fmt.Errorf("%w: %s", ErrCounterExhausted, counterErr.Message)
			}
		}
		return CounterValue{}, err
	}

	formatted := formatCounterValue(value, opts)
	return CounterValue{Value: value, Formatted: formatted}, nil
}

// NextOrderNumber allocates ORD-YYYYMMDD-NNNN for the business day containing at. The sequence
// resets daily because each day has its own counter document. The 10000th order of a day fails
// with ErrCounterExhausted.
func (s *counterService) NextOrderNumber(ctx context.Context, at time.Time) (string, error) {
	if at.IsZero() {
		at = s.clock()
	}
	day := at.In(s.location).Format("20060102")
	max := maxOrderSequence
	result, err := s.Next(ctx, orderCounterScope, day, CounterGenerationOptions{
		Step:      1,
		MaxValue:  &max,
		Prefix:    "ORD-" + day + "-",
		PadLength: 4,
	})
	if err != nil {
		return "", err
	}
	return result.Formatted, nil
}

func (s *counterService) ensureConfiguration(ctx context.Context, counterID string, opts CounterGenerationOptions) error {
	signature := counterConfigSignature{}
	if opts.Step > 0 {
		signature.stepSet = true
		signature.step = opts.Step
	}
	if opts.MaxValue != nil {
		signature.maxSet = true
		signature.maxValue = *opts.MaxValue
	}
	// step 1 is the repository default; skip the extra write for the common case
	if !signature.maxSet && (!signature.stepSet || signature.step == 1) {
		return nil
	}

	s.configMu.Lock()
	defer s.configMu.Unlock()

	if existing, ok := s.configured[counterID]; ok && existing == signature {
		return nil
	}

	cfg := repositories.CounterConfig{}
	if signature.stepSet {
		cfg.Step = signature.step
	}
	if signature.maxSet {
		cfg.MaxValue = &signature.maxValue
	}
	if err := s.repo.Configure(ctx, counterID, cfg); err != nil {
		return err
	}
	s.configured[counterID] = signature
	return nil
}

func formatCounterValue(value int64, opts CounterGenerationOptions) string {
	formatted := strconv.FormatInt(value, 10)
	if opts.PadLength > 0 {
		formatted = fmt.Sprintf("%0*d", opts.PadLength, value)
	}
	return opts.Prefix + formatted
}
