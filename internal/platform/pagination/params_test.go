package pagination

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hanko-field/orders/internal/platform/httpx"
)

var orderSortFields = []string{"createdAt", "total", "orderNumber", "status"}

func TestParseDefaults(t *testing.T) {
	params, err := Parse(url.Values{}, Options{SortFields: orderSortFields})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params != (Params{}) {
		t.Fatalf("expected zero params, got %#v", params)
	}
}

func TestParseValues(t *testing.T) {
	values := url.Values{}
	values.Set("page", "3")
	values.Set("limit", " 25 ")
	values.Set("sortBy", "TOTAL")
	values.Set("sortOrder", "Asc")

	params, err := Parse(values, Options{SortFields: orderSortFields})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := Params{Page: 3, Limit: 25, SortBy: "total", SortOrder: SortAsc}
	if params != want {
		t.Fatalf("expected %#v, got %#v", want, params)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]struct {
		key, value string
	}{
		"page":      {"page", "0"},
		"page text": {"page", "two"},
		"limit":     {"limit", "-5"},
		"sortBy":    {"sortBy", "weight"},
		"sortOrder": {"sortOrder", "sideways"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			values := url.Values{}
			values.Set(tc.key, tc.value)
			_, err := Parse(values, Options{SortFields: orderSortFields})
			if !errors.Is(err, ErrInvalidParam) {
				t.Fatalf("expected ErrInvalidParam, got %v", err)
			}
			var paramErr *ParamError
			if !errors.As(err, &paramErr) || paramErr.Param != tc.key {
				t.Fatalf("expected param %s, got %v", tc.key, err)
			}
		})
	}
}

func TestMiddlewareStoresParams(t *testing.T) {
	var got Params
	handler := Middleware(Options{SortFields: orderSortFields})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, ok := FromContext(r.Context())
		if !ok {
			t.Fatalf("expected params in context")
		}
		got = params
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/orders?page=2&limit=10&sortBy=status", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got != (Params{Page: 2, Limit: 10, SortBy: "status"}) {
		t.Fatalf("unexpected params %#v", got)
	}
}

func TestMiddlewareRejectsMalformedQuery(t *testing.T) {
	called := false
	handler := Middleware(Options{SortFields: orderSortFields})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/orders?limit=lots", nil))
	if called {
		t.Fatalf("handler must not run")
	}
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var env httpx.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Code != httpx.CodeValidation || len(env.Errors) != 1 || env.Errors[0].Field != "limit" {
		t.Fatalf("unexpected envelope %#v", env)
	}
}
