package core

import "context"

type contextKey string

const ctxKeyRequestMeta contextKey = "request_meta"

// RequestMeta describes the client behind an operation. Imports record it as
// the document source.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Source renders m for storage, or "" when nothing is known.
func (m RequestMeta) Source() string {
	switch {
	case m.IPAddress != "" && m.UserAgent != "":
		return m.IPAddress + " (" + m.UserAgent + ")"
	case m.IPAddress != "":
		return m.IPAddress
	}
	return m.UserAgent
}

// ContextWithRequestMeta attaches m to ctx.
func ContextWithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, ctxKeyRequestMeta, m)
}

// RequestMetaFromContext returns the metadata attached to ctx, if any.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if m, ok := ctx.Value(ctxKeyRequestMeta).(RequestMeta); ok {
		return m
	}
	return RequestMeta{}
}
