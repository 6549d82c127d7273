package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"printshop-scheduler/internal/account"
	"printshop-scheduler/internal/auth"
	"printshop-scheduler/internal/middleware"
	"printshop-scheduler/internal/workflow"
)

type Handler struct {
	engine   *workflow.Engine
	accounts *account.Directory
}

func New(engine *workflow.Engine, accounts *account.Directory) *Handler {
	return &Handler{engine: engine, accounts: accounts}
}

func principal(ctx context.Context) (auth.Principal, error) {
	p, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		return auth.Principal{}, status.Error(codes.Unauthenticated, "no principal")
	}
	return p, nil
}
