package auth_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"causeway/internal/ports/http/middleware/auth"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func extractor() (auth.TokenExtractor, *int) {
	rejected := 0
	return auth.NewTokenExtractor(zap.NewNop(), func(w http.ResponseWriter, r *http.Request) {
		rejected++
		w.WriteHeader(http.StatusUnauthorized)
	}), &rejected
}

func echo() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(auth.Token(r.Context())))
	})
}

func TestTokenFromForm(t *testing.T) {
	tokens, rejected := extractor()

	form := url.Values{"token": {"abc"}, "payload": {"{}"}}
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	tokens.RequireToken(echo()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Body.String())
	assert.Zero(t, *rejected)
}

func TestTokenFromBearerHeader(t *testing.T) {
	tokens, _ := extractor()

	req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
	req.Header.Set("Authorization", "Bearer xyz")
	rec := httptest.NewRecorder()
	tokens.RequireToken(echo()).ServeHTTP(rec, req)

	assert.Equal(t, "xyz", rec.Body.String())
}

func TestMissingTokenIsRejected(t *testing.T) {
	tokens, rejected := extractor()

	req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
	rec := httptest.NewRecorder()
	tokens.RequireToken(echo()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, *rejected)
	assert.Empty(t, rec.Body.String())
}
