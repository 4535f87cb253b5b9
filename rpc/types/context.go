package types

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestContext is the immutable record carried through every call. It is
// used for logging, cache-key scoping and limiter lookups.
type RequestContext struct {
	RequestID      string
	ClientIP       string
	MaskedClientIP string
	ArrivalTime    time.Time
}

// NewRequestContext mints a request context for an inbound call.
func NewRequestContext(clientIP string) RequestContext {
	return RequestContext{
		RequestID:      uuid.NewString(),
		ClientIP:       clientIP,
		MaskedClientIP: maskIP(clientIP),
		ArrivalTime:    time.Now(),
	}
}

// maskIP zeroes the host part of the address so logs never carry a full
// client IP. Unparseable input is masked entirely.
func maskIP(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "x.x.x.x"
	}
	if v4 := parsed.To4(); v4 != nil {
		parts := strings.Split(v4.String(), ".")
		parts[3] = "x"
		return strings.Join(parts, ".")
	}
	// IPv6: keep the first four groups
	groups := strings.Split(parsed.String(), ":")
	if len(groups) > 4 {
		groups = groups[:4]
	}
	return strings.Join(groups, ":") + "::x"
}

type requestContextKey struct{}

// WithRequestContext attaches rc to ctx.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFromCtx extracts the request context, minting an empty one
// when the transport did not attach any.
func RequestContextFromCtx(ctx context.Context) RequestContext {
	if rc, ok := ctx.Value(requestContextKey{}).(RequestContext); ok {
		return rc
	}
	return NewRequestContext("")
}
