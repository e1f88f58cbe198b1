package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Sort directions accepted in the sortOrder parameter.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ErrInvalidParam is wrapped by every parse failure.
var ErrInvalidParam = errors.New("pagination: invalid parameter")

// ParamError names the query parameter that failed to parse.
type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("pagination: %s %s", e.Param, e.Message)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParam }

// Params holds the page window and ordering requested by a list endpoint. Zero Page and Limit
// mean the caller did not specify them and service defaults apply.
type Params struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Options controls which sort fields Parse accepts.
type Options struct {
	SortFields []string
}

// FromRequest parses the request's query string.
func FromRequest(r *http.Request, opts Options) (Params, error) {
	if r == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query(), opts)
}

// Parse reads page, limit, sortBy and sortOrder from values.
func Parse(values url.Values, opts Options) (Params, error) {
	var params Params
	var err error
	if params.Page, err = parsePositive(values, "page"); err != nil {
		return Params{}, err
	}
	if params.Limit, err = parsePositive(values, "limit"); err != nil {
		return Params{}, err
	}

	if raw := strings.TrimSpace(values.Get("sortBy")); raw != "" {
		field, ok := matchField(raw, opts.SortFields)
		if !ok {
			return Params{}, &ParamError{Param: "sortBy", Message: "must be one of " + strings.Join(opts.SortFields, ", ")}
		}
		params.SortBy = field
	}

	switch order := strings.ToLower(strings.TrimSpace(values.Get("sortOrder"))); order {
	case "":
	case SortAsc, SortDesc:
		params.SortOrder = order
	default:
		return Params{}, &ParamError{Param: "sortOrder", Message: "must be asc or desc"}
	}
	return params, nil
}

func parsePositive(values url.Values, name string) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ParamError{Param: name, Message: "must be an integer"}
	}
	if n < 1 {
		return 0, &ParamError{Param: name, Message: "must be at least 1"}
	}
	return n, nil
}

func matchField(raw string, allowed []string) (string, bool) {
	for _, field := range allowed {
		if strings.EqualFold(field, raw) {
			return field, true
		}
	}
	return "", false
}
