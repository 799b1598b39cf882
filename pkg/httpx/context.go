package httpx

import "context"

type ctxKey string

const ctxKeyBearer ctxKey = "bearer_token"

// WithBearerToken returns a copy of ctx carrying the raw bearer token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyBearer, token)
}

// BearerTokenFromContext returns the token stored by RequireBearer.
func BearerTokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyBearer).(string)
	return v, ok && v != ""
}
