// Package workflow owns the appointment state machine: intake, gating,
// status transitions and the background work they trigger.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"printshop-scheduler/internal/files"
	"printshop-scheduler/internal/logging"
	"printshop-scheduler/internal/model"
	"printshop-scheduler/internal/notify"
	"printshop-scheduler/internal/ranking"
)

type Store interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	RequestIDExists(ctx context.Context, id string) (bool, error)
	Appointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, email string) ([]model.Appointment, error)
	TransitionStatus(ctx context.Context, id string, from, to model.Status) (bool, error)
}

// Accounts is satisfied by *account.Directory.
type Accounts interface {
	Get(ctx context.Context, email string) (*model.Account, error)
	GetByStudentID(ctx context.Context, studentID string) (*model.Account, error)
	IsEligibleToPay(ctx context.Context, studentID string) (bool, error)
	RequireAdmin(ctx context.Context, email string) (*model.Account, error)
}

// Notifier is satisfied by *notify.Dispatcher.
type Notifier interface {
	Send(ctx context.Context, recipients []string, subject, body string) bool
}

type RequestDetails struct {
	FileName  string `json:"fileName" validate:"required,max=255"`
	FileData  []byte `json:"fileData,omitempty"`
	Copies    int    `json:"copies" validate:"min=1,max=1000"`
	PaperSize string `json:"paperSize" validate:"required,max=32"`
	Urgency   string `json:"urgency" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
}

const maxIDAttempts = 8

type Engine struct {
	store        Store
	accounts     Accounts
	files        files.Store
	sched        notify.Scheduler
	notifier     Notifier
	newID        func() (string, error)
	maxFileBytes int64
}

type Option func(*Engine)

func WithIDGenerator(f func() (string, error)) Option {
	return func(e *Engine) { e.newID = f }
}

// WithMaxFileBytes caps upload size; zero disables the check.
func WithMaxFileBytes(n int64) Option {
	return func(e *Engine) { e.maxFileBytes = n }
}

func New(st Store, accts Accounts, fs files.Store, sched notify.Scheduler, n Notifier, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		accounts: accts,
		files:    fs,
		sched:    sched,
		notifier: n,
		newID:    NewRequestID,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) parse(d RequestDetails) (model.Appointment, error) {
	var a model.Appointment
	if err := model.Validate(d); err != nil {
		return a, err
	}
	verr := &model.ValidationError{}
	add := func(err error) {
		var fe *model.ValidationError
		if errors.As(err, &fe) {
			verr.Fields = append(verr.Fields, fe.Fields...)
		}
	}
	var err error
	if a.Urgency, err = model.ParseUrgency(d.Urgency); err != nil {
		add(err)
	}
	if a.Date, err = model.ParseDate(d.Date); err != nil {
		add(err)
	}
	if a.Time, err = model.ParseClock(d.Time); err != nil {
		add(err)
	}
	if e.maxFileBytes > 0 && int64(len(d.FileData)) > e.maxFileBytes {
		verr.Fields = append(verr.Fields, model.FieldError{
			Field: "fileData", Error: fmt.Sprintf("file exceeds %d bytes", e.maxFileBytes),
		})
	}
	if len(verr.Fields) > 0 {
		return a, verr
	}
	a.File = files.SanitizeFilename(d.FileName)
	a.Copies = d.Copies
	a.PaperSize = strings.TrimSpace(d.PaperSize)
	return a, nil
}

// Create records a Pending request for an eligible requester and returns its
// request id. The file bytes and the confirmation email are written after
// the row commits and may land after Create returns.
func (e *Engine) Create(ctx context.Context, email string, d RequestDetails) (string, error) {
	a, err := e.parse(d)
	if err != nil {
		return "", err
	}
	acct, err := e.accounts.Get(ctx, email)
	if err != nil {
		return "", err
	}
	eligible, err := e.accounts.IsEligibleToPay(ctx, acct.StudentID)
	if err != nil {
		return "", err
	}
	if !eligible {
		return "", model.ErrIneligibleAccount
	}

	a.Email = acct.Email
	a.Name = acct.Name
	a.Status = model.StatusPending
	a.PaymentAmount = 0
	if err := e.insert(ctx, &a); err != nil {
		return "", err
	}
	logging.FromContext(ctx).Info("appointment created",
		"appointment", a.RequestID, "email", a.Email, "urgency", a.Urgency, "date", a.Date.String())

	if len(d.FileData) > 0 {
		ns, name, data := files.Namespace(acct.Name), a.File, d.FileData
		e.sched.Submit(ctx, "save-file", func(ctx context.Context) error {
			return e.files.Save(ctx, ns, name, data)
		})
	}
	e.notifier.Send(ctx, acct.Recipients(), notify.SubjectReceived, notify.ReceivedBody(a))
	return a.RequestID, nil
}

// insert assigns a request id not present in the store. A racing insert of
// the same id is rejected by the primary key and retried with a new id.
func (e *Engine) insert(ctx context.Context, a *model.Appointment) error {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := e.newID()
		if err != nil {
			return fmt.Errorf("generate request id: %w", err)
		}
		exists, err := e.store.RequestIDExists(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		a.RequestID = id
		err = e.store.CreateAppointment(ctx, a)
		if errors.Is(err, model.ErrDuplicate) {
			if e.committed(ctx, a) {
				return nil
			}
			continue
		}
		return err
	}
	return fmt.Errorf("%w: no free request id after %d attempts", model.ErrTransientStore, maxIDAttempts)
}

// committed reports whether the row holding a's id is a itself, written by
// an attempt whose reply was lost.
func (e *Engine) committed(ctx context.Context, a *model.Appointment) bool {
	got, err := e.store.Appointment(ctx, a.RequestID)
	if err != nil || !sameRequest(got, a) {
		return false
	}
	a.CreatedAt, a.UpdatedAt = got.CreatedAt, got.UpdatedAt
	logging.FromContext(ctx).Warn("appointment already committed", "appointment", a.RequestID)
	return true
}

func sameRequest(x, y *model.Appointment) bool {
	return strings.EqualFold(x.Email, y.Email) &&
		x.Status == y.Status &&
		x.File == y.File &&
		x.Copies == y.Copies &&
		x.PaperSize == y.PaperSize &&
		x.Urgency == y.Urgency &&
		x.Date == y.Date &&
		x.Time == y.Time
}

// TransitionTo is the admin path: any admin may move any Pending appointment
// to Done or Cancelled. Only cancellation notifies the requester.
func (e *Engine) TransitionTo(ctx context.Context, requestID string, to model.Status, acting string) (*model.Appointment, error) {
	if _, err := e.accounts.RequireAdmin(ctx, acting); err != nil {
		return nil, err
	}
	if to != model.StatusDone && to != model.StatusCancelled {
		return nil, model.Invalid("status", fmt.Sprintf("cannot transition to %q", to))
	}
	a, err := e.store.Appointment(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return e.transition(ctx, a, to)
}

// Cancel is the requester path. Appointments owned by someone else are
// reported as not found.
func (e *Engine) Cancel(ctx context.Context, requester, requestID string) (*model.Appointment, error) {
	a, err := e.store.Appointment(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(a.Email, requester) {
		return nil, model.ErrNotFound
	}
	return e.transition(ctx, a, model.StatusCancelled)
}

func (e *Engine) transition(ctx context.Context, a *model.Appointment, to model.Status) (*model.Appointment, error) {
	if !a.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s is %s", model.ErrInvalidTransition, a.RequestID, a.Status)
	}
	ok, err := e.store.TransitionStatus(ctx, a.RequestID, a.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// changed underneath us
		return nil, fmt.Errorf("%w: %s is no longer %s", model.ErrInvalidTransition, a.RequestID, a.Status)
	}
	from := a.Status
	a.Status = to
	logging.FromContext(ctx).Info("appointment transitioned", "appointment", a.RequestID, "from", from, "to", to)

	if to == model.StatusCancelled {
		e.notifier.Send(ctx, e.recipients(ctx, a.Email), notify.SubjectCancelled, notify.CancelledBody(*a))
	}
	return a, nil
}

func (e *Engine) recipients(ctx context.Context, email string) []string {
	acct, err := e.accounts.Get(ctx, email)
	if err != nil {
		logging.FromContext(ctx).Warn("requester lookup failed, notifying primary only", "email", email, "error", err)
		return []string{email}
	}
	return acct.Recipients()
}

// Appointments is the requester's own list in per-user order.
func (e *Engine) Appointments(ctx context.Context, email, statusFilter string) ([]model.Appointment, error) {
	list, err := e.store.ListAppointments(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	return ranking.Rank(ranking.Filter(list, statusFilter), ranking.PerUser), nil
}

// AllAppointments is the admin list in global order.
func (e *Engine) AllAppointments(ctx context.Context, acting, statusFilter string) ([]model.Appointment, error) {
	if _, err := e.accounts.RequireAdmin(ctx, acting); err != nil {
		return nil, err
	}
	list, err := e.store.ListAppointments(ctx, "")
	if err != nil {
		return nil, err
	}
	return ranking.Rank(ranking.Filter(list, statusFilter), ranking.Global), nil
}

// Upload returns a stored file for the student with studentID. Admins may
// read any student's files, students only their own.
func (e *Engine) Upload(ctx context.Context, acting, studentID, fileName string) ([]byte, error) {
	actor, err := e.accounts.Get(ctx, acting)
	if err != nil {
		return nil, model.ErrForbidden
	}
	if !actor.IsAdmin && actor.StudentID != studentID {
		return nil, model.ErrForbidden
	}
	owner, err := e.accounts.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	b, err := e.files.Get(ctx, files.Namespace(owner.Name), files.SanitizeFilename(fileName))
	if errors.Is(err, files.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, fileName)
	}
	return b, err
}
