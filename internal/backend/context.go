package backend

import "context"

type contextKey int

const accessTokenKey contextKey = iota

// WithAccessToken attaches the caller's access token to ctx. Table calls made
// with the returned context act as that user.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessTokenFromContext returns the access token attached to ctx, if any
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey).(string)
	return token, ok && token != ""
}
