package store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"printshop-scheduler/internal/model"
)

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"no rows", pgx.ErrNoRows, false},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("syntax"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transient(tt.err); got != tt.want {
				t.Errorf("transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDoRetriesOnce(t *testing.T) {
	s := &Store{}
	calls := 0
	err := s.do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return io.ErrUnexpectedEOF
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on retry, calls=%d err=%v", calls, err)
	}
}

func TestDoSurfacesTransientAfterSecondFailure(t *testing.T) {
	s := &Store{}
	calls := 0
	err := s.do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return io.EOF
	})
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if !errors.Is(err, model.ErrTransientStore) {
		t.Fatalf("expected ErrTransientStore, got %v", err)
	}
}

func TestDoDoesNotRetryLogicalErrors(t *testing.T) {
	s := &Store{}
	calls := 0
	err := s.do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return &pgconn.PgError{Code: "23505"}
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, model.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	err = s.do(context.Background(), "op", func(ctx context.Context) error { return pgx.ErrNoRows })
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// sendFailed is what pgconn returns when a statement never left the client.
type sendFailed struct{}

func (sendFailed) Error() string     { return "write failed before send" }
func (sendFailed) SafeToRetry() bool { return true }

func TestWriteDoesNotReplaySentStatement(t *testing.T) {
	s := &Store{}
	calls := 0
	// the first attempt commits but the reply is lost
	err := s.write(context.Background(), "create appointment", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return io.ErrUnexpectedEOF
		}
		return &pgconn.PgError{Code: "23505"}
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, model.ErrTransientStore) {
		t.Fatalf("expected ErrTransientStore, got %v", err)
	}
	if errors.Is(err, model.ErrDuplicate) {
		t.Fatalf("lost reply must not surface as a duplicate: %v", err)
	}
}

func TestWriteRetriesUnsentStatement(t *testing.T) {
	s := &Store{}
	calls := 0
	err := s.write(context.Background(), "create appointment", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return sendFailed{}
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on retry, calls=%d err=%v", calls, err)
	}
}
