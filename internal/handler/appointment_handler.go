package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"printshop-scheduler/internal/model"
)

func (h *Handler) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*CreateAppointmentResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := h.engine.Create(ctx, p.Email, req.RequestDetails)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &CreateAppointmentResponse{RequestID: id}, nil
}

// filter resolves the requested status filter, or the caller's saved one.
func (h *Handler) filter(ctx context.Context, email, requested string) (string, error) {
	if requested == "" {
		return h.accounts.StatusFilter(ctx, email)
	}
	return model.ParseStatusFilter(requested)
}

func (h *Handler) ListMyAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f, err := h.filter(ctx, p.Email, req.StatusFilter)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	list, err := h.engine.Appointments(ctx, p.Email, f)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &ListAppointmentsResponse{StatusFilter: f, Appointments: list}, nil
}

func (h *Handler) ListAllAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f, err := h.filter(ctx, p.Email, req.StatusFilter)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	list, err := h.engine.AllAppointments(ctx, p.Email, f)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &ListAppointmentsResponse{StatusFilter: f, Appointments: list}, nil
}

func (h *Handler) CancelAppointment(ctx context.Context, req *CancelAppointmentRequest) (*AppointmentResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		return nil, status.Error(codes.InvalidArgument, "requestId required")
	}
	a, err := h.engine.Cancel(ctx, p.Email, req.RequestID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &AppointmentResponse{Appointment: a}, nil
}

func (h *Handler) TransitionAppointment(ctx context.Context, req *TransitionAppointmentRequest) (*AppointmentResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		return nil, status.Error(codes.InvalidArgument, "requestId required")
	}
	to, err := model.ParseStatus(req.Status)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	a, err := h.engine.TransitionTo(ctx, req.RequestID, to, p.Email)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &AppointmentResponse{Appointment: a}, nil
}

func (h *Handler) GetUpload(ctx context.Context, req *GetUploadRequest) (*GetUploadResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if req.StudentID == "" || req.FileName == "" {
		return nil, status.Error(codes.InvalidArgument, "studentId and fileName required")
	}
	data, err := h.engine.Upload(ctx, p.Email, req.StudentID, req.FileName)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &GetUploadResponse{FileName: req.FileName, Data: data}, nil
}
