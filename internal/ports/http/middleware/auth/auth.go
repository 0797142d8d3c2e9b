package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey struct{}

// TokenExtractor takes the authorization token of a submission, from the `token` form
// field or an `Authorization: Bearer` header, and puts it into the request context.
// The token itself is verified when it is redeemed.
type TokenExtractor struct {
	logger *zap.Logger
	reject http.HandlerFunc
}

// NewTokenExtractor answers requests without a token with reject.
func NewTokenExtractor(logger *zap.Logger, reject http.HandlerFunc) TokenExtractor {
	return TokenExtractor{logger: logger, reject: reject}
}

func (t TokenExtractor) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.PostFormValue("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		token = strings.TrimSpace(token)

		if token == "" {
			t.logger.Warn("request without a token", zap.String("path", r.URL.Path))
			t.reject(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, token)))
	})
}

// Token returns the token RequireToken found for the request.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(contextKey{}).(string)
	return token
}
