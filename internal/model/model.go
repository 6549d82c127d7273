package model

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleStudent Role = "Student"
	RoleFaculty Role = "Faculty"
)

// ParseRole accepts only the closed set {Student, Faculty}, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, nil
	case "faculty":
		return RoleFaculty, nil
	}
	return "", Invalid("role", fmt.Sprintf("role must be one of Student, Faculty; got %q", s))
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusDone      Status = "Done"
	StatusCancelled Status = "Cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusDone, StatusCancelled:
		return Status(s), nil
	}
	return "", Invalid("status", fmt.Sprintf("unknown status %q", s))
}

// Terminal reports whether no further transition is legal from s.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// CanTransitionTo: Pending -> {Done, Cancelled}, nothing else.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusDone || next == StatusCancelled)
}

type Urgency string

const (
	UrgencyUrgent Urgency = "URGENT"
	UrgencyNormal Urgency = "NORMAL"
	UrgencyMinor  Urgency = "MINOR"
)

func ParseUrgency(s string) (Urgency, error) {
	u := Urgency(strings.ToUpper(strings.TrimSpace(s)))
	switch u {
	case UrgencyUrgent, UrgencyNormal, UrgencyMinor:
		return u, nil
	}
	return "", Invalid("urgency", fmt.Sprintf("urgency must be one of URGENT, NORMAL, MINOR; got %q", s))
}

type Account struct {
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	StudentID      string    `json:"studentId,omitempty"`
	IsPaid         bool      `json:"isPaid"`
	IsAdmin        bool      `json:"isAdmin"`
	SecondaryEmail string    `json:"secondaryEmail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Recipients is the notification list: primary first, secondary if on file.
func (a Account) Recipients() []string {
	out := []string{a.Email}
	if a.SecondaryEmail != "" && !strings.EqualFold(a.SecondaryEmail, a.Email) {
		out = append(out, a.SecondaryEmail)
	}
	return out
}

type Appointment struct {
	RequestID     string    `json:"requestId"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	File          string    `json:"file"`
	Copies        int       `json:"copies"`
	PaperSize     string    `json:"paperSize"`
	Urgency       Urgency   `json:"urgency"`
	Date          Date      `json:"date"`
	Time          Clock     `json:"time"`
	Status        Status    `json:"status"`
	PaymentAmount int64     `json:"paymentAmount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// StatusFilter values a user may save as their list view preference.
const (
	FilterAll     = "All"
	DefaultFilter = string(StatusPending)
)

func ParseStatusFilter(s string) (string, error) {
	if s == FilterAll {
		return s, nil
	}
	st, err := ParseStatus(s)
	if err != nil {
		return "", Invalid("statusFilter", fmt.Sprintf("status filter must be All, Pending, Done or Cancelled; got %q", s))
	}
	return string(st), nil
}

type Preference struct {
	Email        string `json:"email"`
	StatusFilter string `json:"statusFilter"`
}
