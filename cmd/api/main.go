package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/hanko-field/orders/internal/di"
	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/handlers"
	"github.com/hanko-field/orders/internal/platform/auth"
	"github.com/hanko-field/orders/internal/platform/config"
	pfirestore "github.com/hanko-field/orders/internal/platform/firestore"
	"github.com/hanko-field/orders/internal/platform/idempotency"
	"github.com/hanko-field/orders/internal/platform/jobs"
	"github.com/hanko-field/orders/internal/platform/observability"
	"github.com/hanko-field/orders/internal/platform/secrets"
	platformstorage "github.com/hanko-field/orders/internal/platform/storage"
	"github.com/hanko-field/orders/internal/repositories"
	firestoreRepo "github.com/hanko-field/orders/internal/repositories/firestore"
	"github.com/hanko-field/orders/internal/repositories/memory"
	"github.com/hanko-field/orders/internal/services"
)

const demoCustomerID = "cus_demo"

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("orders")

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(fetcher))
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	build := buildInfoFromEnv(envValues, cfg, startedAt)
	cloudOpts := clientOptions(cfg)

	var authenticator *auth.Authenticator
	var userLookup firestoreRepo.AuthUserLookup
	if cfg.Firebase.ProjectID != "" {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cloudOpts...)
		if err != nil {
			logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
		}
		authenticator = auth.NewAuthenticator(verifier, auth.WithUserGetter(verifier))
		userLookup = verifier.GetUser
	} else {
		logger.Warn("firebase project not configured; admin routes will reject every request")
	}

	var (
		checks    []repositories.DependencyCheck
		events    services.OrderEventPublisher
		uploader  services.ExportUploader
		closeFns  []func(context.Context) error
		projectID = traceProjectID(cfg)
	)

	if projectID != "" {
		publisher, check, closeFn, err := newEventPublisher(ctx, cfg, projectID, cloudOpts)
		if err != nil {
			logger.Warn("order events disabled", zap.Error(err))
		} else {
			events = publisher
			checks = append(checks, check)
			closeFns = append(closeFns, closeFn)
		}
	}

	if bucket := strings.TrimSpace(cfg.Exports.Bucket); bucket != "" {
		exportUploader, check, closeFn, err := newExportUploader(ctx, cfg, cloudOpts)
		if err != nil {
			logger.Warn("storage exports disabled", zap.Error(err))
		} else {
			uploader = exportUploader
			checks = append(checks, check)
			closeFns = append(closeFns, closeFn)
		}
	}

	var (
		registry         repositories.Registry
		idempotencyStore idempotency.Store
	)
	switch cfg.Orders.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory order store; data is lost on restart", zap.String("demoCustomer", demoCustomerID))
		registry = memory.NewRegistry(domain.Customer{
			ID:        demoCustomerID,
			Name:      "Demo Customer",
			Email:     "demo@example.com",
			CreatedAt: startedAt,
			UpdatedAt: startedAt,
		})
		idempotencyStore = idempotency.NewMemoryStore()
	default:
		provider := pfirestore.NewProvider(cfg.Firestore, pfirestore.WithClientOptions(cloudOpts...))
		if _, err := provider.Client(ctx); err != nil {
			logger.Fatal("failed to initialise firestore client", zap.Error(err))
		}
		fsRegistry, err := firestoreRepo.NewRegistry(provider, userLookup, checks...)
		if err != nil {
			logger.Fatal("failed to initialise firestore repositories", zap.Error(err))
		}
		registry = fsRegistry
		store, err := idempotency.NewFirestoreStore(provider)
		if err != nil {
			logger.Fatal("failed to initialise idempotency store", zap.Error(err))
		}
		idempotencyStore = store
	}

	container, err := di.NewContainer(cfg, registry, di.Collaborators{
		Events:   events,
		Uploader: uploader,
		Logger:   observability.EventLogger(logger.Named("services")),
		Build:    build,
	})
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}
	svc := container.Services

	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(logger.Named("idempotency")),
	)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	var sweeperWG sync.WaitGroup
	sweeperWG.Add(1)
	go func() {
		defer sweeperWG.Done()
		idempotency.Sweeper{
			Store:     idempotencyStore,
			Interval:  cfg.Idempotency.CleanupInterval,
			BatchSize: cfg.Idempotency.CleanupBatchSize,
			Logger:    logger.Named("idempotency"),
		}.Run(sweepCtx)
	}()

	location := cfg.Orders.Location()
	orderHandlers := handlers.NewOrderHandlers(svc.Orders, svc.Queries,
		handlers.WithOrderAuthenticator(authenticator),
		handlers.WithOrderIdempotency(idempotencyMiddleware),
		handlers.WithLookupRateLimit(cfg.Orders.LookupLimit, cfg.Orders.LookupWindow, time.Now),
		handlers.WithOrderBodyLimit(cfg.Server.BodyLimit),
	)
	adminHandlers := handlers.NewAdminOrderHandlers(svc.Orders, svc.Queries,
		handlers.WithAdminAuthenticator(authenticator),
		handlers.WithAdminExports(svc.Exports),
		handlers.WithAdminAuditLogs(svc.System),
		handlers.WithBusinessLocation(location),
	)
	cartHandlers := handlers.NewCartHandlers(svc.Pricing)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthSystemService(svc.System),
		handlers.WithHealthBuildInfo(build),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(projectID),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("orders api listening",
			zap.String("store", cfg.Orders.Store),
			zap.String("version", build.Version),
			zap.String("environment", build.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	stopSweeper()
	sweeperWG.Wait()

	for _, closeFn := range closeFns {
		if err := closeFn(shutdownCtx); err != nil {
			logger.Warn("client close error", zap.Error(err))
		}
	}
	if err := container.Close(shutdownCtx); err != nil {
		logger.Warn("repository close error", zap.Error(err))
	}
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["API_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	environment := strings.TrimSpace(cfg.Security.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		Environment: environment,
		StartedAt:   started,
	}
}

func clientOptions(cfg config.Config) []option.ClientOption {
	if file := strings.TrimSpace(cfg.Firebase.CredentialsFile); file != "" {
		return []option.ClientOption{option.WithCredentialsFile(file)}
	}
	return nil
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(env[key])
	}

	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIREBASE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile := lookup("API_FIREBASE_CREDENTIALS_FILE"); credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}
	return secrets.NewFetcher(ctx, opts...)
}

func newEventPublisher(ctx context.Context, cfg config.Config, projectID string, opts []option.ClientOption) (services.OrderEventPublisher, repositories.DependencyCheck, func(context.Context) error, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, repositories.DependencyCheck{}, nil, fmt.Errorf("pubsub client: %w", err)
	}
	topic := client.Topic(cfg.Events.Topic)
	topic.EnableMessageOrdering = true

	publisher, err := jobs.NewPubSubOrderEventPublisher(topic, cfg.Events.SigningSecret)
	if err != nil {
		_ = client.Close()
		return nil, repositories.DependencyCheck{}, nil, err
	}

	check := repositories.DependencyCheck{
		Name:    "pubsub",
		Timeout: 2 * time.Second,
		Check: func(ctx context.Context) error {
			ok, err := topic.Exists(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("topic %s not found", cfg.Events.Topic)
			}
			return nil
		},
	}
	closeFn := func(context.Context) error {
		topic.Stop()
		return client.Close()
	}
	return publisher, check, closeFn, nil
}

func newExportUploader(ctx context.Context, cfg config.Config, opts []option.ClientOption) (services.ExportUploader, repositories.DependencyCheck, func(context.Context) error, error) {
	client, err := cloudstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, repositories.DependencyCheck{}, nil, fmt.Errorf("storage client: %w", err)
	}

	var uploaderOpts []platformstorage.ExportUploaderOption
	if file := strings.TrimSpace(cfg.Firebase.CredentialsFile); file != "" {
		signer, err := platformstorage.NewServiceAccountSignerFromFile(file)
		if err != nil {
			_ = client.Close()
			return nil, repositories.DependencyCheck{}, nil, fmt.Errorf("export signer: %w", err)
		}
		uploaderOpts = append(uploaderOpts, platformstorage.WithSigner(signer))
	}

	uploader, err := platformstorage.NewExportUploader(platformstorage.GCSObjectWriter{Client: client}, cfg.Exports.Bucket, cfg.Exports.Prefix, uploaderOpts...)
	if err != nil {
		_ = client.Close()
		return nil, repositories.DependencyCheck{}, nil, err
	}

	check := repositories.DependencyCheck{
		Name:    "storage",
		Timeout: 2 * time.Second,
		Check: func(ctx context.Context) error {
			_, err := client.Bucket(cfg.Exports.Bucket).Attrs(ctx)
			return err
		},
	}
	closeFn := func(context.Context) error { return client.Close() }
	return uploader, check, closeFn, nil
}
