package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/modelcsv/internal/core"
)

// WithRequestMetadata records the client address and user agent so imports
// can note where a document came from. Expects RemoteAddr to be rewritten by
// TrustedRealIP already.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithRequestMeta(ctx, core.RequestMeta{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
}
