package cookai

import "context"

type surfaceContextKey struct{}
type requestIDContextKey struct{}

// WithSurface attaches the name of the UI surface (screen) that triggered the
// call to ctx. The Client includes it in audit event metadata.
func WithSurface(ctx context.Context, surface string) context.Context {
	return context.WithValue(ctx, surfaceContextKey{}, surface)
}

// WithRequestID attaches a caller-chosen correlation identifier to ctx. The
// Client includes it in audit event metadata.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func surfaceFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	surface, _ := ctx.Value(surfaceContextKey{}).(string)
	return surface
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
