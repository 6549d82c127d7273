// Package memstore is an in-memory store with the same contracts as the
// Postgres store. It backs STORE_DRIVER=memory and the unit tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"printshop-scheduler/internal/model"
)

type Store struct {
	mu           sync.RWMutex
	accounts     map[string]model.Account
	appointments map[string]model.Appointment
	roster       map[string]bool
	prefs        map[string]string
	last         time.Time
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]model.Account),
		appointments: make(map[string]model.Appointment),
		roster:       make(map[string]bool),
		prefs:        make(map[string]string),
	}
}

// now is strictly increasing so creation order survives equal clock readings.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) InsertAccountIfAbsent(_ context.Context, a *model.Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Email]; ok {
		return false, nil
	}
	cp := *a
	cp.CreatedAt = s.now()
	cp.UpdatedAt = cp.CreatedAt
	s.accounts[a.Email] = cp
	a.CreatedAt, a.UpdatedAt = cp.CreatedAt, cp.UpdatedAt
	return true, nil
}

func (s *Store) Account(_ context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[email]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

func (s *Store) AccountByStudentID(_ context.Context, studentID string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *model.Account
	for _, a := range s.accounts {
		if a.StudentID != "" && a.StudentID == studentID {
			if found == nil || a.CreatedAt.Before(found.CreatedAt) {
				a := a
				found = &a
			}
		}
	}
	if found == nil {
		return nil, model.ErrNotFound
	}
	return found, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (s *Store) SetPaid(_ context.Context, studentID string, paid bool) (bool, error) {
	return s.updateAccounts(func(a *model.Account) bool { return a.StudentID != "" && a.StudentID == studentID },
		func(a *model.Account) { a.IsPaid = paid })
}

func (s *Store) SetAdmin(_ context.Context, email string, admin bool) (bool, error) {
	return s.updateAccounts(func(a *model.Account) bool { return a.Email == email },
		func(a *model.Account) { a.IsAdmin = admin })
}

func (s *Store) SetSecondaryEmail(_ context.Context, email, secondary string) (bool, error) {
	return s.updateAccounts(func(a *model.Account) bool { return a.Email == email },
		func(a *model.Account) { a.SecondaryEmail = secondary })
}

func (s *Store) updateAccounts(match func(*model.Account) bool, apply func(*model.Account)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for k, a := range s.accounts {
		if !match(&a) {
			continue
		}
		apply(&a)
		a.UpdatedAt = s.now()
		s.accounts[k] = a
		n++
	}
	return n > 0, nil
}

func (s *Store) RosterHas(_ context.Context, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster[studentID], nil
}

func (s *Store) AddToRoster(_ context.Context, ids ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, id := range ids {
		if !s.roster[id] {
			s.roster[id] = true
			n++
		}
	}
	return n, nil
}

func (s *Store) RemoveFromRoster(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.roster[id]
	delete(s.roster, id)
	return ok, nil
}

func (s *Store) UpsertPreference(_ context.Context, p model.Preference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[p.Email]; !ok {
		return model.ErrNotFound
	}
	s.prefs[p.Email] = p.StatusFilter
	return nil
}

func (s *Store) Preference(_ context.Context, email string) (*model.Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.prefs[email]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &model.Preference{Email: email, StatusFilter: f}, nil
}

func (s *Store) CreateAppointment(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Email]; !ok {
		return model.ErrNotFound
	}
	if _, ok := s.appointments[a.RequestID]; ok {
		return model.ErrDuplicate
	}
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.appointments[a.RequestID] = *a
	return nil
}

func (s *Store) RequestIDExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.appointments[id]
	return ok, nil
}

func (s *Store) Appointment(_ context.Context, id string) (*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

func (s *Store) ListAppointments(_ context.Context, email string) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Appointment, 0)
	for _, a := range s.appointments {
		if email == "" || a.Email == email {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b model.Appointment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.RequestID < b.RequestID {
			return -1
		}
		return 1
	})
	return out, nil
}

func (s *Store) TransitionStatus(_ context.Context, id string, from, to model.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = s.now()
	s.appointments[id] = a
	return true, nil
}
