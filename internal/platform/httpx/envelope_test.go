package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hanko-field/orders/internal/platform/requestctx"
)

func TestWriteErrorEnvelope(t *testing.T) {
	ctx := requestctx.WithTrace(context.Background(), requestctx.TraceInfo{TraceID: "abc123"})
	rec := httptest.NewRecorder()

	WriteError(ctx, rec, NewError(CodeValidation, "invalid\nrequest", http.StatusBadRequest).
		WithFields(FieldError{Field: "items", Message: "at least one item is required"}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if body["code"] != CodeValidation {
		t.Fatalf("expected code %s, got %v", CodeValidation, body["code"])
	}
	if body["message"] != "invalid request" {
		t.Fatalf("expected sanitised message, got %v", body["message"])
	}
	if body["trace_id"] != "abc123" {
		t.Fatalf("expected trace id, got %v", body["trace_id"])
	}
	if _, ok := body["data"]; ok {
		t.Fatalf("data must be omitted on errors")
	}
	errs, ok := body["errors"].([]any)
	if !ok || len(errs) != 1 {
		t.Fatalf("expected one field error, got %v", body["errors"])
	}
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteSuccess(context.Background(), rec, http.StatusCreated, "created", map[string]string{"id": "ord_1"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var body Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Message != "created" || body.Code != "" {
		t.Fatalf("unexpected envelope %+v", body)
	}
	data, ok := body.Data.(map[string]any)
	if !ok || data["id"] != "ord_1" {
		t.Fatalf("unexpected data %v", body.Data)
	}
}

func TestWriteErrorDefaultsToServerError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(context.Background(), rec, Error{Message: "boom"})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != CodeServer {
		t.Fatalf("expected %s, got %s", CodeServer, body.Code)
	}
}
