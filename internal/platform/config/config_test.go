package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID": "shop-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.BodyLimit != defaultBodyLimit {
		t.Errorf("unexpected body limit: %d", cfg.Server.BodyLimit)
	}
	if cfg.Firestore.ProjectID != "shop-dev" {
		t.Errorf("expected firestore project to default to firebase project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.Orders.Store != StoreFirestore {
		t.Errorf("expected firestore store, got %s", cfg.Orders.Store)
	}
	if cfg.Orders.Location() != time.UTC {
		t.Errorf("expected UTC location, got %s", cfg.Orders.Location())
	}
	if len(cfg.Orders.AdminMarkers) != 3 {
		t.Errorf("expected default admin markers, got %v", cfg.Orders.AdminMarkers)
	}
	if cfg.Pricing.TaxRate != 0.10 {
		t.Errorf("unexpected default tax rate: %v", cfg.Pricing.TaxRate)
	}
	if cfg.Pricing.Currency != "USD" {
		t.Errorf("unexpected default currency: %s", cfg.Pricing.Currency)
	}
	if fee := cfg.Pricing.ShippingFees["free"]; fee != 0 {
		t.Errorf("expected free shipping fee 0, got %d", fee)
	}
	if fee := cfg.Pricing.ShippingFees["express"]; fee != 1500 {
		t.Errorf("expected express fee 1500, got %d", fee)
	}
	if cfg.Events.Topic != defaultEventsTopic {
		t.Errorf("unexpected events topic: %s", cfg.Events.Topic)
	}
	if cfg.Exports.Prefix != defaultExportsPrefix {
		t.Errorf("unexpected exports prefix: %s", cfg.Exports.Prefix)
	}
	if cfg.Security.Environment != "local" {
		t.Errorf("expected default security environment local, got %s", cfg.Security.Environment)
	}
	if cfg.Idempotency.Header != defaultIdempotencyHeader {
		t.Errorf("expected default idempotency header, got %s", cfg.Idempotency.Header)
	}
	if cfg.Idempotency.TTL != defaultIdempotencyTTL {
		t.Errorf("unexpected default idempotency ttl: %s", cfg.Idempotency.TTL)
	}
	if cfg.Orders.LookupLimit != defaultLookupLimit || cfg.Orders.LookupWindow != time.Minute {
		t.Errorf("unexpected lookup rate limit: %d per %s", cfg.Orders.LookupLimit, cfg.Orders.LookupWindow)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":           "9090",
		"API_SERVER_READ_TIMEOUT":   "20s",
		"API_SERVER_BODY_LIMIT":     "2048",
		"API_FIREBASE_PROJECT_ID":   "shop-prod",
		"API_FIRESTORE_PROJECT_ID":  "shop-fire",
		"API_ORDERS_TIMEZONE":       "Asia/Tokyo",
		"API_ORDERS_ADMIN_MARKERS":  "[ops], [staff-only]",
		"API_ORDERS_LIST_LIMIT":     "50",
		"API_PRICING_CURRENCY":      "jpy",
		"API_PRICING_TAX_RATE":      "0.08",
		"API_PRICING_SHIPPING_FEES": "express=800, premium=1200",
		"API_EVENTS_TOPIC":          "orders-prod",
		"API_EVENTS_SIGNING_SECRET": "secret://events/signing",
		"API_EXPORTS_BUCKET":        "shop-exports",
		"API_EXPORTS_PREFIX":        "/reports/orders/",
		"API_SECURITY_ENVIRONMENT":  "PROD",
		"API_IDEMPOTENCY_HEADER":    "X-Idem-Key",
		"API_IDEMPOTENCY_TTL":       "48h",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref == "secret://events/signing" {
			return "signing-value", nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Server.ReadTimeout != 20*time.Second || cfg.Server.BodyLimit != 2048 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Firestore.ProjectID != "shop-fire" {
		t.Errorf("unexpected firestore project: %s", cfg.Firestore.ProjectID)
	}
	if cfg.Orders.Location().String() != "Asia/Tokyo" {
		t.Errorf("unexpected orders location: %s", cfg.Orders.Location())
	}
	if len(cfg.Orders.AdminMarkers) != 2 || cfg.Orders.AdminMarkers[1] != "[staff-only]" {
		t.Errorf("unexpected admin markers: %v", cfg.Orders.AdminMarkers)
	}
	if cfg.Orders.DefaultListLimit != 50 {
		t.Errorf("unexpected list limit: %d", cfg.Orders.DefaultListLimit)
	}
	if cfg.Pricing.Currency != "JPY" || cfg.Pricing.TaxRate != 0.08 {
		t.Errorf("unexpected pricing config: %+v", cfg.Pricing)
	}
	if cfg.Pricing.ShippingFees["express"] != 800 || cfg.Pricing.ShippingFees["premium"] != 1200 || cfg.Pricing.ShippingFees["free"] != 0 {
		t.Errorf("unexpected shipping fees: %v", cfg.Pricing.ShippingFees)
	}
	if cfg.Events.Topic != "orders-prod" {
		t.Errorf("unexpected events topic: %s", cfg.Events.Topic)
	}
	if cfg.Events.SigningSecret != "signing-value" {
		t.Errorf("expected resolved signing secret, got %s", cfg.Events.SigningSecret)
	}
	if cfg.Exports.Bucket != "shop-exports" || cfg.Exports.Prefix != "reports/orders" {
		t.Errorf("unexpected exports config: %+v", cfg.Exports)
	}
	if cfg.Security.Environment != "prod" {
		t.Errorf("expected lower-cased environment, got %s", cfg.Security.Environment)
	}
	if cfg.Idempotency.Header != "X-Idem-Key" || cfg.Idempotency.TTL != 48*time.Hour {
		t.Errorf("unexpected idempotency config: %+v", cfg.Idempotency)
	}
}

func TestLoadMemoryStoreWithoutProject(t *testing.T) {
	cfg, err := Load(context.Background(),
		WithEnvMap(map[string]string{"API_ORDERS_STORE": "memory"}),
		WithoutSystemEnv(),
		WithEnvFile(""),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Orders.Store != StoreMemory {
		t.Fatalf("expected memory store, got %s", cfg.Orders.Store)
	}
}

func TestLoadRejectsInvalidPricing(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID":   "shop-dev",
		"API_PRICING_TAX_RATE":      "1.5",
		"API_PRICING_SHIPPING_FEES": "express=-10",
		"API_ORDERS_TIMEZONE":       "Mars/Olympus",
		"API_ORDERS_LOOKUP_LIMIT":   "-1",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := make(map[string]bool)
	for _, field := range validation.Fields() {
		fields[field] = true
	}
	for _, want := range []string{"Pricing.TaxRate", "Pricing.ShippingFees[express]", "Orders.Timezone", "Orders.LookupLimit"} {
		if !fields[want] {
			t.Errorf("expected %s in invalid fields %v", want, validation.Fields())
		}
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\n# comment\nexport API_FIREBASE_PROJECT_ID=\"shop-dot\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Firebase.ProjectID != "shop-dot" {
		t.Errorf("expected firebase project from dotenv, got %s", cfg.Firebase.ProjectID)
	}
}

func TestLoadIgnoresMissingDotEnv(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvFile(filepath.Join(t.TempDir(), "absent.env")),
		WithEnvMap(map[string]string{"API_ORDERS_STORE": "memory"}),
		WithoutSystemEnv(),
	)
	if err != nil {
		t.Fatalf("expected missing dotenv to be ignored, got %v", err)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestLoadSecretResolverError(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID":   "shop-dev",
		"API_EVENTS_SIGNING_SECRET": "secret://missing",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://missing" {
		t.Errorf("unexpected secret ref %s", secretErr.Ref)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_FIREBASE_PROJECT_ID=dot-project\nAPI_SECRET_FALLBACK_FILE=.dot.local\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	t.Setenv("API_FIREBASE_PROJECT_ID", "os-project")
	t.Setenv("API_SECRET_PROJECT_IDS", "prod=project-prod")

	overrides := map[string]string{
		"API_FIREBASE_PROJECT_ID": "override-project",
	}

	values, err := EnvironmentValues(WithEnvFile(envPath), WithEnvMap(overrides))
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}

	if got := values["API_FIREBASE_PROJECT_ID"]; got != "override-project" {
		t.Fatalf("expected override project, got %s", got)
	}
	if got := values["API_SECRET_FALLBACK_FILE"]; got != ".dot.local" {
		t.Fatalf("expected dotenv fallback file, got %s", got)
	}
	if got := values["API_SECRET_PROJECT_IDS"]; got != "prod=project-prod" {
		t.Fatalf("expected system env project map, got %s", got)
	}
}

func TestLoadMissingRequiredSecrets(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID": "shop-dev",
	}

	_, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Events.SigningSecret"),
	)
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %T", err)
	}
	expectedRedacted := redactSecretName("Events.SigningSecret")
	if got := missing.RedactedNames(); len(got) != 1 || got[0] != expectedRedacted {
		t.Fatalf("unexpected redacted names %v", got)
	}
	if got := missing.Names(); len(got) != 1 || got[0] != "Events.SigningSecret" {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestLoadSupportsLegacySecretScheme(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID":   "shop-dev",
		"API_EVENTS_SIGNING_SECRET": "sm://events/signing",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref == "secret://events/signing" {
			return "legacy-secret", nil
		}
		return "", errors.New("not found")
	})

	cfg, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithSecretResolver(resolver),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Events.SigningSecret != "legacy-secret" {
		t.Fatalf("expected legacy secret, got %s", cfg.Events.SigningSecret)
	}
}
