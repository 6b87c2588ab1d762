package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxCallerID ctxKey = iota

// WithCaller stores the authenticated caller identity in context.
func WithCaller(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, ctxCallerID, callerID)
}

// CallerID returns the authenticated caller identity from context.
func CallerID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxCallerID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("caller_id not in context")
}
