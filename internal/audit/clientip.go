package audit

import (
	"context"
	"net"
)

type clientIPKey struct{}

// WithClientIP records the caller's address on ctx. A host:port value is reduced to the host.
func WithClientIP(ctx context.Context, addr string) context.Context {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, addr)
}

// ClientIPFromContext is an IPExtractor reading the value set by WithClientIP.
func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey{}).(string)
	return v
}
