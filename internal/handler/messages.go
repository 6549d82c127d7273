package handler

import (
	"printshop-scheduler/internal/model"
	"printshop-scheduler/internal/workflow"
)

type Empty struct{}

type EnsureAccountRequest struct{}

type AccountResponse struct {
	Account *model.Account `json:"account"`
	Created bool           `json:"created"`
}

// CreateAppointmentRequest carries the upload inline; fileData is base64 in JSON.
type CreateAppointmentRequest struct {
	workflow.RequestDetails
}

type CreateAppointmentResponse struct {
	RequestID string `json:"requestId"`
}

// ListAppointmentsRequest falls back to the caller's saved filter when
// StatusFilter is empty.
type ListAppointmentsRequest struct {
	StatusFilter string `json:"statusFilter,omitempty"`
}

type ListAppointmentsResponse struct {
	StatusFilter string              `json:"statusFilter"`
	Appointments []model.Appointment `json:"appointments"`
}

type CancelAppointmentRequest struct {
	RequestID string `json:"requestId"`
}

type TransitionAppointmentRequest struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

type AppointmentResponse struct {
	Appointment *model.Appointment `json:"appointment"`
}

type SetPaidRequest struct {
	StudentID string `json:"studentId"`
	Paid      bool   `json:"paid"`
}

type SetAdminRequest struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

type ExistedResponse struct {
	Existed bool `json:"existed"`
}

// SetSecondaryEmailRequest targets the caller when Email is empty.
type SetSecondaryEmailRequest struct {
	Email          string `json:"email,omitempty"`
	SecondaryEmail string `json:"secondaryEmail"`
}

type StatusFilterRequest struct {
	StatusFilter string `json:"statusFilter"`
}

type StatusFilterResponse struct {
	StatusFilter string `json:"statusFilter"`
}

type ListAccountsResponse struct {
	Accounts []model.Account `json:"accounts"`
}

type GetUploadRequest struct {
	StudentID string `json:"studentId"`
	FileName  string `json:"fileName"`
}

type GetUploadResponse struct {
	FileName string `json:"fileName"`
	Data     []byte `json:"data"`
}
