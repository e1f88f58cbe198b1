package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hanko-field/orders/internal/platform/config"
	"github.com/hanko-field/orders/internal/repositories"
	"github.com/hanko-field/orders/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Pricing  services.PricingService
	Counters services.CounterService
	Orders   services.OrderService
	Queries  services.OrderQueryService
	Exports  services.OrderExportService
	Audit    services.AuditLogService
	System   services.SystemService
}

// Collaborators are the optional infrastructure adapters built by the caller. Nil fields disable
// the feature they back.
type Collaborators struct {
	Events   services.OrderEventPublisher
	Uploader services.ExportUploader
	Logger   func(ctx context.Context, event string, fields map[string]any)
	Build    services.BuildInfo
	Clock    func() time.Time
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring passes the Firestore
// registry, while tests and local runs can supply the in-memory one.
func NewContainer(cfg config.Config, reg repositories.Registry, collab Collaborators) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(cfg, reg, collab)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(cfg config.Config, reg repositories.Registry, collab Collaborators) (Services, error) {
	var svc Services
	clock := collab.Clock
	if clock == nil {
		clock = time.Now
	}

	auditSvc, err := services.NewAuditLogService(services.AuditLogServiceDeps{
		Repository: reg.AuditLogs(),
		Clock:      clock,
		Logger:     collab.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build audit log service: %w", err)
	}
	svc.Audit = auditSvc

	shipping, err := services.NewShippingTable(cfg.Pricing.ShippingFees)
	if err != nil {
		return Services{}, fmt.Errorf("build shipping table: %w", err)
	}
	pricingSvc, err := services.NewPricingService(services.PricingServiceDeps{
		Currency: cfg.Pricing.Currency,
		TaxRate:  cfg.Pricing.TaxRate,
		Shipping: shipping,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build pricing service: %w", err)
	}
	svc.Pricing = pricingSvc

	counterSvc, err := services.NewCounterService(services.CounterServiceDeps{
		Repository: reg.Counters(),
		Clock:      clock,
		Location:   cfg.Orders.Location(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build counter service: %w", err)
	}
	svc.Counters = counterSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:    reg.Orders(),
		Customers: reg.Customers(),
		Counters:  counterSvc,
		Pricing:   pricingSvc,
		Audit:     auditSvc,
		Events:    collab.Events,
		Clock:     clock,
		Logger:    collab.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	querySvc, err := services.NewOrderQueryService(services.OrderQueryServiceDeps{
		Orders:       reg.Orders(),
		AdminMarkers: cfg.Orders.AdminMarkers,
		DefaultLimit: cfg.Orders.DefaultListLimit,
		MaxLimit:     cfg.Orders.MaxListLimit,
		Logger:       collab.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order query service: %w", err)
	}
	svc.Queries = querySvc

	exportSvc, err := services.NewOrderExportService(services.OrderExportServiceDeps{
		Orders:   reg.Orders(),
		Uploader: collab.Uploader,
		Clock:    clock,
		Logger:   collab.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order export service: %w", err)
	}
	svc.Exports = exportSvc

	systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: reg.Health(),
		Clock:            clock,
		Build:            collab.Build,
		Audit:            auditSvc,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build system service: %w", err)
	}
	svc.System = systemSvc

	return svc, nil
}
