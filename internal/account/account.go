// Package account is the account directory: identity to role mapping,
// payment eligibility, admin flags and contact addresses.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"printshop-scheduler/internal/logging"
	"printshop-scheduler/internal/model"
	"printshop-scheduler/internal/notify"
)

type Store interface {
	InsertAccountIfAbsent(ctx context.Context, a *model.Account) (bool, error)
	Account(ctx context.Context, email string) (*model.Account, error)
	AccountByStudentID(ctx context.Context, studentID string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	SetPaid(ctx context.Context, studentID string, paid bool) (bool, error)
	SetAdmin(ctx context.Context, email string, admin bool) (bool, error)
	SetSecondaryEmail(ctx context.Context, email, secondary string) (bool, error)
	RosterHas(ctx context.Context, studentID string) (bool, error)
	UpsertPreference(ctx context.Context, p model.Preference) error
	Preference(ctx context.Context, email string) (*model.Preference, error)
}

// Identity is the authenticated principal as supplied by the identity provider.
type Identity struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required,max=200"`
	Role      string `json:"role" validate:"required"`
	StudentID string `json:"studentId" validate:"max=64"`
}

type Directory struct {
	store  Store
	prober notify.Prober
}

func New(st Store, prober notify.Prober) *Directory {
	return &Directory{store: st, prober: prober}
}

// RegisterIfAbsent creates the account on first login and is a no-op after
// that. Concurrent first logins for one email produce a single row.
func (d *Directory) RegisterIfAbsent(ctx context.Context, id Identity) (bool, error) {
	if err := model.Validate(id); err != nil {
		return false, err
	}
	role, err := model.ParseRole(id.Role)
	if err != nil {
		return false, err
	}
	a := &model.Account{
		Email: strings.ToLower(id.Email),
		Name:  strings.TrimSpace(id.Name),
		Role:  role,
	}
	switch role {
	case model.RoleFaculty:
		a.IsAdmin = true
	case model.RoleStudent:
		if id.StudentID == "" {
			return false, model.Invalid("studentId", "studentId is required for students")
		}
		a.StudentID = id.StudentID
		a.IsPaid, err = d.store.RosterHas(ctx, id.StudentID)
		if err != nil {
			return false, fmt.Errorf("roster lookup: %w", err)
		}
	}
	created, err := d.store.InsertAccountIfAbsent(ctx, a)
	if err != nil {
		return false, fmt.Errorf("register account: %w", err)
	}
	if created {
		logging.FromContext(ctx).Info("account registered", "email", a.Email, "role", a.Role, "paid", a.IsPaid)
	}
	return created, nil
}

// IsEligibleToPay: the student is on the roster and no account has revoked it.
func (d *Directory) IsEligibleToPay(ctx context.Context, studentID string) (bool, error) {
	if studentID == "" {
		return false, nil
	}
	onRoster, err := d.store.RosterHas(ctx, studentID)
	if err != nil {
		return false, fmt.Errorf("roster lookup: %w", err)
	}
	if !onRoster {
		return false, nil
	}
	a, err := d.store.AccountByStudentID(ctx, studentID)
	if errors.Is(err, model.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("account lookup: %w", err)
	}
	return a.IsPaid, nil
}

func (d *Directory) Get(ctx context.Context, email string) (*model.Account, error) {
	return d.store.Account(ctx, strings.ToLower(email))
}

func (d *Directory) GetByStudentID(ctx context.Context, studentID string) (*model.Account, error) {
	if studentID == "" {
		return nil, model.ErrNotFound
	}
	return d.store.AccountByStudentID(ctx, studentID)
}

// RequireAdmin returns the acting account, or model.ErrForbidden when it is
// unknown or not an admin.
func (d *Directory) RequireAdmin(ctx context.Context, email string) (*model.Account, error) {
	a, err := d.Get(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !a.IsAdmin {
		return nil, model.ErrForbidden
	}
	return a, nil
}

func (d *Directory) List(ctx context.Context, acting string) ([]model.Account, error) {
	if _, err := d.RequireAdmin(ctx, acting); err != nil {
		return nil, err
	}
	return d.store.ListAccounts(ctx)
}

// SetPaid reports whether an account with studentID existed.
func (d *Directory) SetPaid(ctx context.Context, acting, studentID string, paid bool) (bool, error) {
	if _, err := d.RequireAdmin(ctx, acting); err != nil {
		return false, err
	}
	existed, err := d.store.SetPaid(ctx, studentID, paid)
	if err != nil {
		return false, err
	}
	logging.FromContext(ctx).Info("paid flag changed", "student_id", studentID, "paid", paid, "existed", existed)
	return existed, nil
}

func (d *Directory) SetAdmin(ctx context.Context, acting, email string, admin bool) (bool, error) {
	if _, err := d.RequireAdmin(ctx, acting); err != nil {
		return false, err
	}
	existed, err := d.store.SetAdmin(ctx, strings.ToLower(email), admin)
	if err != nil {
		return false, err
	}
	logging.FromContext(ctx).Info("admin flag changed", "email", email, "admin", admin, "existed", existed)
	return existed, nil
}

// SetSecondaryEmail may be called by the owner or an admin. An empty
// candidate clears the address. Invalid candidates change nothing.
func (d *Directory) SetSecondaryEmail(ctx context.Context, acting, email, candidate string) error {
	email = strings.ToLower(email)
	if !strings.EqualFold(acting, email) {
		if _, err := d.RequireAdmin(ctx, acting); err != nil {
			return err
		}
	}
	candidate = strings.TrimSpace(candidate)
	if candidate != "" {
		if !model.ValidEmail(candidate) {
			return model.Invalid("secondaryEmail", fmt.Sprintf("%q is not a valid email address", candidate))
		}
		if err := notify.Probe(ctx, d.prober, candidate); err != nil {
			return model.Invalid("secondaryEmail", err.Error())
		}
	}
	existed, err := d.store.SetSecondaryEmail(ctx, email, candidate)
	if err != nil {
		return err
	}
	if !existed {
		return model.ErrNotFound
	}
	return nil
}

func (d *Directory) SetStatusFilter(ctx context.Context, email, filter string) error {
	f, err := model.ParseStatusFilter(filter)
	if err != nil {
		return err
	}
	return d.store.UpsertPreference(ctx, model.Preference{Email: strings.ToLower(email), StatusFilter: f})
}

// StatusFilter returns the saved filter, or Pending when none is saved.
func (d *Directory) StatusFilter(ctx context.Context, email string) (string, error) {
	p, err := d.store.Preference(ctx, strings.ToLower(email))
	if errors.Is(err, model.ErrNotFound) {
		return model.DefaultFilter, nil
	}
	if err != nil {
		return "", err
	}
	return p.StatusFilter, nil
}
