package store

import (
	"context"

	"printshop-scheduler/internal/model"
)

func (s *Store) RosterHas(ctx context.Context, studentID string) (bool, error) {
	var ok bool
	err := s.do(ctx, "roster lookup", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM paid_students WHERE student_id = $1)`, studentID).Scan(&ok)
	})
	return ok, err
}

// AddToRoster inserts the given ids and returns how many were new.
func (s *Store) AddToRoster(ctx context.Context, ids ...string) (int, error) {
	var n int64
	err := s.write(ctx, "roster add", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO paid_students (student_id)
			 SELECT DISTINCT unnest($1::text[])
			 ON CONFLICT (student_id) DO NOTHING`, ids)
		n = tag.RowsAffected()
		return err
	})
	return int(n), err
}

func (s *Store) RemoveFromRoster(ctx context.Context, id string) (bool, error) {
	return s.update(ctx, "roster remove", `DELETE FROM paid_students WHERE student_id = $1`, id)
}

func (s *Store) UpsertPreference(ctx context.Context, p model.Preference) error {
	return s.do(ctx, "upsert preference", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO user_preferences (email, status_filter) VALUES ($1, $2)
			 ON CONFLICT (email) DO UPDATE SET status_filter = EXCLUDED.status_filter, updated_at = NOW()`,
			p.Email, p.StatusFilter)
		return err
	})
}

func (s *Store) Preference(ctx context.Context, email string) (*model.Preference, error) {
	p := &model.Preference{}
	err := s.do(ctx, "get preference", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx,
			`SELECT email, status_filter FROM user_preferences WHERE email = $1`, email,
		).Scan(&p.Email, &p.StatusFilter)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
