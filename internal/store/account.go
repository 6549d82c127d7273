package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"printshop-scheduler/internal/model"
)

const accountCols = `email, name, role, COALESCE(student_id, ''), is_paid, is_admin,
	COALESCE(secondary_email, ''), created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	a := &model.Account{}
	err := row.Scan(&a.Email, &a.Name, &a.Role, &a.StudentID, &a.IsPaid, &a.IsAdmin,
		&a.SecondaryEmail, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// InsertAccountIfAbsent reports whether a new row was written.
func (s *Store) InsertAccountIfAbsent(ctx context.Context, a *model.Account) (bool, error) {
	var created bool
	err := s.write(ctx, "insert account", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO accounts (email, name, role, student_id, is_paid, is_admin)
			 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
			 ON CONFLICT (email) DO NOTHING`,
			a.Email, a.Name, a.Role, a.StudentID, a.IsPaid, a.IsAdmin,
		)
		created = tag.RowsAffected() == 1
		return err
	})
	return created, err
}

func (s *Store) Account(ctx context.Context, email string) (*model.Account, error) {
	var a *model.Account
	err := s.do(ctx, "get account", func(ctx context.Context) error {
		var err error
		a, err = scanAccount(s.pool.QueryRow(ctx,
			`SELECT `+accountCols+` FROM accounts WHERE email = $1`, email))
		return err
	})
	return a, err
}

func (s *Store) AccountByStudentID(ctx context.Context, studentID string) (*model.Account, error) {
	var a *model.Account
	err := s.do(ctx, "get account by student id", func(ctx context.Context) error {
		var err error
		a, err = scanAccount(s.pool.QueryRow(ctx,
			`SELECT `+accountCols+` FROM accounts WHERE student_id = $1
			 ORDER BY created_at LIMIT 1`, studentID))
		return err
	})
	return a, err
}

func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var out []model.Account
	err := s.do(ctx, "list accounts", func(ctx context.Context) error {
		out = nil
		rows, err := s.pool.Query(ctx, `SELECT `+accountCols+` FROM accounts ORDER BY created_at, email`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			a, err := scanAccount(rows)
			if err != nil {
				return err
			}
			out = append(out, *a)
		}
		return rows.Err()
	})
	return out, err
}

// SetPaid updates every account linked to studentID and reports whether any existed.
func (s *Store) SetPaid(ctx context.Context, studentID string, paid bool) (bool, error) {
	return s.update(ctx, "set paid",
		`UPDATE accounts SET is_paid = $2, updated_at = NOW() WHERE student_id = $1`, studentID, paid)
}

func (s *Store) SetAdmin(ctx context.Context, email string, admin bool) (bool, error) {
	return s.update(ctx, "set admin",
		`UPDATE accounts SET is_admin = $2, updated_at = NOW() WHERE email = $1`, email, admin)
}

func (s *Store) SetSecondaryEmail(ctx context.Context, email, secondary string) (bool, error) {
	return s.update(ctx, "set secondary email",
		`UPDATE accounts SET secondary_email = NULLIF($2, ''), updated_at = NOW() WHERE email = $1`, email, secondary)
}

func (s *Store) update(ctx context.Context, op, sql string, args ...any) (bool, error) {
	var n int64
	err := s.write(ctx, op, func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, sql, args...)
		n = tag.RowsAffected()
		return err
	})
	return n > 0, err
}
