package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/platform/requestctx"
	"github.com/hanko-field/orders/internal/repositories"
	"github.com/hanko-field/orders/internal/services"
)

// writeServiceError maps service errors onto stable envelope codes. Anything unrecognised is
// logged and reported as a generic server error.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var (
		validation *services.ValidationError
		item       *services.InvalidItemError
		transition *services.InvalidTransitionError
		conflict   *services.ConcurrentModificationError
		repoErr    repositories.RepositoryError
	)

	switch {
	case errors.As(err, &item):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidation, "invalid order items", http.StatusBadRequest).
			WithFields(httpx.FieldError{Field: item.Field(), Message: item.Reason}))
	case errors.As(err, &validation):
		apiErr := httpx.NewError(httpx.CodeValidation, validation.Error(), http.StatusBadRequest)
		if validation.Field != "" {
			apiErr = apiErr.WithFields(httpx.FieldError{Field: validation.Field, Message: validation.Message})
		}
		httpx.WriteError(ctx, w, apiErr)
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidation, err.Error(), http.StatusBadRequest))
	case errors.As(err, &transition):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeInvalidTransition, transition.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCustomerNotFound):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeCustomerNotFound, "customer not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeNotFound, "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderPermission):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeForbidden, "insufficient permissions for this operation", http.StatusForbidden))
	case errors.As(err, &conflict), errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeConcurrentModification, "order was modified by another request; reload and retry", http.StatusConflict))
	case errors.Is(err, services.ErrCounterExhausted):
		requestctx.Logger(ctx).Error("handler.order_numbers_exhausted", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeUnavailable, "no order numbers left for today", http.StatusServiceUnavailable))
	case errors.As(err, &repoErr) && repoErr.IsUnavailable(), errors.Is(err, context.DeadlineExceeded):
		requestctx.Logger(ctx).Warn("handler.dependency_unavailable", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeUnavailable, "service temporarily unavailable", http.StatusServiceUnavailable))
	default:
		requestctx.Logger(ctx).Error("handler.unexpected_error", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeServer, "internal server error", http.StatusInternalServerError))
	}
}

func writeUnavailable(ctx context.Context, w http.ResponseWriter, what string) {
	httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeUnavailable, what+" unavailable", http.StatusServiceUnavailable))
}
