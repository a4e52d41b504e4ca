package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/worktime/worktime-backend/pkg/i18n"
)

type fakeDomainError struct{}

func (fakeDomainError) Error() string { return "fake" }

func (fakeDomainError) ToAppError() *AppError {
	return Conflict("fake conflict")
}

func TestNotFound_Localize(t *testing.T) {
	err := NotFound("employee")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "Employee not found", err.Message)
	assert.True(t, Is(err, ErrNotFound))

	ctx := i18n.WithLocale(context.Background(), i18n.LocaleRussian)
	assert.Equal(t, "Сотрудник: не найдено", err.Localize(ctx))
}

func TestFromError(t *testing.T) {
	t.Run("app error passes through", func(t *testing.T) {
		src := BadRequest("bad")
		assert.Same(t, src, FromError(fmt.Errorf("wrapped: %w", src)))
	})

	t.Run("converter is used", func(t *testing.T) {
		got := FromError(fmt.Errorf("wrapped: %w", fakeDomainError{}))
		assert.Equal(t, http.StatusConflict, got.StatusCode)
		assert.Equal(t, "fake conflict", got.Message)
	})

	t.Run("unknown errors are opaque", func(t *testing.T) {
		got := FromError(fmt.Errorf("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, got.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", got.Code)
		assert.NotContains(t, got.Message, "pq")
	})
}

func TestValidation(t *testing.T) {
	err := Validation(map[string]string{"hourly_rate": "Must be at most 100"})
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "Must be at most 100", err.Details["hourly_rate"])
	assert.Equal(t, "Validation failed", err.Localize(context.Background()))
}
