package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", LocaleEnglish},
		{"ru", LocaleRussian},
		{"ru-RU,ru;q=0.9,en;q=0.8", LocaleRussian},
		{"en-US,en;q=0.9,ru;q=0.8", LocaleEnglish},
		{"de-DE,ru;q=0.5", LocaleRussian},
		{"fr", LocaleEnglish},
		{"ru;q=0", LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAcceptLanguage(tt.header))
		})
	}
}

func TestLocalizer_T(t *testing.T) {
	params := map[string]string{"resource": "Employee"}

	assert.Equal(t, "Employee not found", TWithLocale(LocaleEnglish, "errors.not_found", params))
	assert.Equal(t, "Employee: не найдено", TWithLocale(LocaleRussian, "errors.not_found", params))
	assert.Equal(t, "Сотрудник", TWithLocale(LocaleRussian, "resources.employee"))
	assert.Equal(t, "errors.nope", T("errors.nope"))
	assert.Equal(t, "Task", NewLocalizer("xx").T("resources.task"))
}

func TestMiddleware(t *testing.T) {
	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetLocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru-RU")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, LocaleRussian, got)
	assert.Equal(t, LocaleRussian, rec.Header().Get("Content-Language"))
	assert.Equal(t, DefaultLocale, GetLocaleFromContext(context.Background()))
}
