package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"printshop-scheduler/internal/account"
)

// EnsureAccount registers the caller on first login and returns the account.
func (h *Handler) EnsureAccount(ctx context.Context, _ *EnsureAccountRequest) (*AccountResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	created, err := h.accounts.RegisterIfAbsent(ctx, account.Identity{
		Email:     p.Email,
		Name:      p.Name,
		Role:      p.Role,
		StudentID: p.StudentID,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	a, err := h.accounts.Get(ctx, p.Email)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &AccountResponse{Account: a, Created: created}, nil
}

func (h *Handler) SetPaid(ctx context.Context, req *SetPaidRequest) (*ExistedResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if req.StudentID == "" {
		return nil, status.Error(codes.InvalidArgument, "studentId required")
	}
	existed, err := h.accounts.SetPaid(ctx, p.Email, req.StudentID, req.Paid)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &ExistedResponse{Existed: existed}, nil
}

func (h *Handler) SetAdmin(ctx context.Context, req *SetAdminRequest) (*ExistedResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, status.Error(codes.InvalidArgument, "email required")
	}
	existed, err := h.accounts.SetAdmin(ctx, p.Email, req.Email, req.Admin)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &ExistedResponse{Existed: existed}, nil
}

func (h *Handler) SetSecondaryEmail(ctx context.Context, req *SetSecondaryEmailRequest) (*Empty, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	target := req.Email
	if target == "" {
		target = p.Email
	}
	if err := h.accounts.SetSecondaryEmail(ctx, p.Email, target, req.SecondaryEmail); err != nil {
		return nil, toStatus(ctx, err)
	}
	return &Empty{}, nil
}

func (h *Handler) SetStatusFilter(ctx context.Context, req *StatusFilterRequest) (*Empty, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.accounts.SetStatusFilter(ctx, p.Email, req.StatusFilter); err != nil {
		return nil, toStatus(ctx, err)
	}
	return &Empty{}, nil
}

func (h *Handler) GetStatusFilter(ctx context.Context, _ *Empty) (*StatusFilterResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f, err := h.accounts.StatusFilter(ctx, p.Email)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &StatusFilterResponse{StatusFilter: f}, nil
}

func (h *Handler) ListAccounts(ctx context.Context, _ *Empty) (*ListAccountsResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	list, err := h.accounts.List(ctx, p.Email)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &ListAccountsResponse{Accounts: list}, nil
}
