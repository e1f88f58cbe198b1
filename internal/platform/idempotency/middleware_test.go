package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hanko-field/orders/internal/platform/auth"
	"github.com/hanko-field/orders/internal/platform/httpx"
)

var fixedTime = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func createOrderHandler(calls *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"call": n})
	})
}

func postOrder(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(DefaultHeader, key)
	}
	return req
}

func decodeCode(t *testing.T, body []byte) string {
	t.Helper()
	var env httpx.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Success {
		t.Fatalf("expected failure envelope, got %s", body)
	}
	return env.Code
}

func TestMiddlewarePassesThroughWithoutKey(t *testing.T) {
	store := NewMemoryStore()
	var calls int32
	handler := Middleware(store, WithClock(fixedClock))(createOrderHandler(&calls))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, postOrder(`{"customerId":"cus_1"}`, ""))
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rr.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected handler called twice, got %d", calls)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no records, got %d", store.Len())
	}
}

func TestMiddlewareRequiredKey(t *testing.T) {
	var calls int32
	handler := Middleware(NewMemoryStore(), WithKeyRequired())(createOrderHandler(&calls))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postOrder(`{}`, ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if code := decodeCode(t, rr.Body.Bytes()); code != httpx.CodeValidation {
		t.Fatalf("expected %s, got %s", httpx.CodeValidation, code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run")
	}
}

func TestMiddlewareReplaysStoredResponse(t *testing.T) {
	var calls int32
	handler := Middleware(NewMemoryStore(), WithClock(fixedClock))(createOrderHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postOrder(`{"customerId":"cus_1"}`, "key-1"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postOrder(`{"customerId":"cus_1"}`, "key-1"))

	if calls != 1 {
		t.Fatalf("expected one handler call, got %d", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Header().Get(ReplayHeader) != "true" {
		t.Fatalf("expected replay header")
	}
	if first.Header().Get(ReplayHeader) != "" {
		t.Fatalf("first response must not be marked as replay")
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("expected identical bodies, got %s vs %s", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected stored content type")
	}
}

func TestMiddlewareRejectsDifferentBodyForSameKey(t *testing.T) {
	var calls int32
	handler := Middleware(NewMemoryStore(), WithClock(fixedClock))(createOrderHandler(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), postOrder(`{"customerId":"cus_1"}`, "key-1"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postOrder(`{"customerId":"cus_2"}`, "key-1"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if code := decodeCode(t, rr.Body.Bytes()); code != httpx.CodeIdempotencyConflict {
		t.Fatalf("expected %s, got %s", httpx.CodeIdempotencyConflict, code)
	}
	if calls != 1 {
		t.Fatalf("expected one handler call, got %d", calls)
	}
}

func TestMiddlewareScopesKeysPerUser(t *testing.T) {
	var calls int32
	handler := Middleware(NewMemoryStore(), WithClock(fixedClock))(createOrderHandler(&calls))

	for _, uid := range []string{"user-a", "user-b"} {
		req := postOrder(`{"customerId":"cus_1"}`, "shared")
		req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: uid, Roles: []string{auth.RoleUser}}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusCreated || rr.Header().Get(ReplayHeader) != "" {
			t.Fatalf("expected fresh response for %s", uid)
		}
	}
	if calls != 2 {
		t.Fatalf("expected two handler calls, got %d", calls)
	}
}

func TestMiddlewareReleasesKeyOnServerError(t *testing.T) {
	store := NewMemoryStore()
	var calls int32
	handler := Middleware(store, WithClock(fixedClock))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postOrder(`{}`, "retry-me"))
	if first.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", first.Code)
	}
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postOrder(`{}`, "retry-me"))
	if second.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("expected retry to run handler, got %d after %d calls", second.Code, calls)
	}
}

func TestMiddlewarePendingKeyConflicts(t *testing.T) {
	store := NewMemoryStore()
	body := `{"customerId":"cus_1"}`
	req := postOrder(body, "in-flight")
	fingerprint := fingerprintRequest(req, []byte(body), anonymous)
	if _, err := store.Reserve(context.Background(), "in-flight|"+anonymous, fingerprint, fixedTime, time.Hour); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	var calls int32
	rr := httptest.NewRecorder()
	Middleware(store, WithClock(fixedClock))(createOrderHandler(&calls)).ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run while key is pending")
	}
}

type failingStore struct{ *MemoryStore }

func (failingStore) Reserve(context.Context, string, string, time.Time, time.Duration) (Reservation, error) {
	return Reservation{}, errors.New("firestore down")
}

func TestMiddlewareStoreFailure(t *testing.T) {
	var calls int32
	rr := httptest.NewRecorder()
	Middleware(failingStore{NewMemoryStore()})(createOrderHandler(&calls)).ServeHTTP(rr, postOrder(`{}`, "k"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if code := decodeCode(t, rr.Body.Bytes()); code != httpx.CodeUnavailable {
		t.Fatalf("expected %s, got %s", httpx.CodeUnavailable, code)
	}
}

func TestMiddlewareRejectsOversizedKey(t *testing.T) {
	var calls int32
	rr := httptest.NewRecorder()
	Middleware(NewMemoryStore())(createOrderHandler(&calls)).ServeHTTP(rr, postOrder(`{}`, string(bytes.Repeat([]byte("k"), maxKeyLength+1))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestMemoryStoreExpiryAndSweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.Reserve(ctx, "a", "fp", fixedTime, time.Minute); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := store.SaveResponse(ctx, "b", "fp", Response{Status: http.StatusCreated}, fixedTime, time.Hour); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}

	later := fixedTime.Add(2 * time.Minute)
	res, err := store.Reserve(ctx, "a", "other", later, time.Minute)
	if err != nil {
		t.Fatalf("expired key should be reusable: %v", err)
	}
	if res.State != ReservationStateNew {
		t.Fatalf("expected new reservation, got %v", res.State)
	}

	removed := Sweeper{Store: store, Clock: func() time.Time { return fixedTime.Add(2 * time.Hour) }}.Sweep(ctx)
	if removed != 2 || store.Len() != 0 {
		t.Fatalf("expected both records swept, removed=%d remaining=%d", removed, store.Len())
	}
}
