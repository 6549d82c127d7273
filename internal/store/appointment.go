package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"printshop-scheduler/internal/model"
)

const appointmentCols = `request_id, email, name, file_name, copies, paper_size, urgency,
	date_needed, time_needed, status, payment_amount, created_at, updated_at`

func clockParam(c model.Clock) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c.Minutes()) * int64(time.Minute/time.Microsecond), Valid: true}
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	var (
		day time.Time
		tod pgtype.Time
	)
	err := row.Scan(&a.RequestID, &a.Email, &a.Name, &a.File, &a.Copies, &a.PaperSize, &a.Urgency,
		&day, &tod, &a.Status, &a.PaymentAmount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Date = model.DateOf(day)
	mins := tod.Microseconds / int64(time.Minute/time.Microsecond)
	a.Time = model.Clock{Hour: int(mins / 60), Minute: int(mins % 60)}
	return a, nil
}

// CreateAppointment returns model.ErrDuplicate when the request id is taken
// and model.ErrNotFound when the requester account does not exist.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	return s.write(ctx, "create appointment", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO appointments (request_id, email, name, file_name, copies, paper_size, urgency,
			                           date_needed, time_needed, status, payment_amount)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			 RETURNING created_at, updated_at`,
			a.RequestID, a.Email, a.Name, a.File, a.Copies, a.PaperSize, a.Urgency,
			a.Date.Time(), clockParam(a.Time), a.Status, a.PaymentAmount,
		).Scan(&a.CreatedAt, &a.UpdatedAt)
	})
}

func (s *Store) RequestIDExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.do(ctx, "request id exists", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM appointments WHERE request_id = $1)`, id).Scan(&exists)
	})
	return exists, err
}

func (s *Store) Appointment(ctx context.Context, id string) (*model.Appointment, error) {
	var a *model.Appointment
	err := s.do(ctx, "get appointment", func(ctx context.Context) error {
		var err error
		a, err = scanAppointment(s.pool.QueryRow(ctx,
			`SELECT `+appointmentCols+` FROM appointments WHERE request_id = $1`, id))
		return err
	})
	return a, err
}

// ListAppointments returns one requester's appointments, or all when email is empty.
func (s *Store) ListAppointments(ctx context.Context, email string) ([]model.Appointment, error) {
	var out []model.Appointment
	err := s.do(ctx, "list appointments", func(ctx context.Context) error {
		out = nil
		rows, err := s.pool.Query(ctx,
			`SELECT `+appointmentCols+` FROM appointments
			 WHERE $1 = '' OR email = $1
			 ORDER BY created_at, request_id`, email)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			a, err := scanAppointment(rows)
			if err != nil {
				return err
			}
			out = append(out, *a)
		}
		return rows.Err()
	})
	return out, err
}

// TransitionStatus moves id from one status to another only if it is still
// in from. It reports whether the row changed.
func (s *Store) TransitionStatus(ctx context.Context, id string, from, to model.Status) (bool, error) {
	return s.update(ctx, "transition status",
		`UPDATE appointments SET status = $3, updated_at = NOW()
		 WHERE request_id = $1 AND status = $2`, id, from, to)
}
