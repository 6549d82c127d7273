package middleware_test

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"printshop-scheduler/internal/auth"
	"printshop-scheduler/internal/logging"
	"printshop-scheduler/internal/middleware"
)

const (
	secret = "test-secret"
	domain = "@davao.sti.edu.ph"
	method = "/printshop.v1.AppointmentService/CreateAppointment"
)

func bearer(t *testing.T, email string) context.Context {
	t.Helper()
	tok, err := auth.MakeToken(auth.Principal{Email: email, Name: "X", Role: "Student", StudentID: "1"}, secret, time.Minute)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	md := metadata.New(map[string]string{"authorization": "Bearer " + tok})
	return metadata.NewIncomingContext(context.Background(), md)
}

func call(ic grpc.UnaryServerInterceptor, ctx context.Context, fullMethod string) (context.Context, error) {
	var seen context.Context
	_, err := ic(ctx, nil, &grpc.UnaryServerInfo{FullMethod: fullMethod}, func(ctx context.Context, req any) (any, error) {
		seen = ctx
		return "ok", nil
	})
	return seen, err
}

func TestAuth(t *testing.T) {
	ic := middleware.Auth(secret, domain)

	ctx, err := call(ic, bearer(t, "Ana@davao.sti.edu.ph"), method)
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	p, ok := middleware.PrincipalFrom(ctx)
	if !ok || p.Email != "ana@davao.sti.edu.ph" {
		t.Fatalf("principal not on context: %+v", p)
	}

	tests := []struct {
		name string
		ctx  context.Context
		code codes.Code
	}{
		{"no metadata", context.Background(), codes.Unauthenticated},
		{"no token", metadata.NewIncomingContext(context.Background(), metadata.MD{}), codes.Unauthenticated},
		{"garbage", metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer x.y.z")), codes.Unauthenticated},
		{"outside domain", bearer(t, "ana@gmail.com"), codes.PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(ic, tt.ctx, method)
			if s, _ := status.FromError(err); s.Code() != tt.code {
				t.Errorf("expected %v, got %v", tt.code, s.Code())
			}
		})
	}
}

func TestAuthSkipsHealth(t *testing.T) {
	ic := middleware.Auth(secret, domain)
	if _, err := call(ic, context.Background(), "/grpc.health.v1.Health/Check"); err != nil {
		t.Fatalf("health check should be open: %v", err)
	}
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := middleware.NewRateLimiter(ctx, 0.001, 2)
	ic := middleware.RateLimit(rl)

	pctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 1}})
	for i := 0; i < 2; i++ {
		if _, err := call(ic, pctx, method); err != nil {
			t.Fatalf("call %d inside burst rejected: %v", i, err)
		}
	}
	_, err := call(ic, pctx, method)
	if s, _ := status.FromError(err); s.Code() != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", s.Code())
	}

	// principals get their own bucket
	other := middleware.WithPrincipal(pctx, auth.Principal{Email: "ben@davao.sti.edu.ph"})
	if _, err := call(ic, other, method); err != nil {
		t.Fatalf("separate principal rejected: %v", err)
	}

	// unlimited methods pass
	for i := 0; i < 5; i++ {
		if _, err := call(ic, pctx, "/printshop.v1.AppointmentService/ListMyAppointments"); err != nil {
			t.Fatalf("unlimited method rejected: %v", err)
		}
	}
}

func TestRequestID(t *testing.T) {
	ic := middleware.RequestID()

	ctx, err := call(ic, context.Background(), method)
	if err != nil {
		t.Fatal(err)
	}
	if logging.RequestID(ctx) == "" {
		t.Fatal("expected generated request id")
	}

	in := metadata.NewIncomingContext(context.Background(), metadata.Pairs(middleware.RequestIDHeader, "abc-123"))
	ctx, _ = call(ic, in, method)
	if got := logging.RequestID(ctx); got != "abc-123" {
		t.Fatalf("expected caller request id, got %q", got)
	}
}
