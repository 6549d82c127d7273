package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"printshop-scheduler/internal/auth"
	"printshop-scheduler/internal/logging"
)

type ctxKey string

const principalKey ctxKey = "principal"

// skip auth for these
var open = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// WithPrincipal stores p on ctx. The Auth interceptor does this for every
// authenticated call.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return logging.WithPrincipal(ctx, p.Email)
}

func PrincipalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(auth.Principal)
	return p, ok
}

// Auth verifies the bearer token and rejects principals outside the
// institutional domain before any handler runs.
func Auth(secret, domain string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from Authorization: Bearer <jwt>
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = strings.TrimPrefix(vals[0], "Bearer ")
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}
		p := claims.Principal()
		if !auth.InDomain(p.Email, domain) {
			logging.FromContext(ctx).Warn("login outside institutional domain", "email", p.Email)
			return nil, status.Error(codes.PermissionDenied, auth.ErrOutsideDomain.Error())
		}

		return next(WithPrincipal(ctx, p), req)
	}
}
