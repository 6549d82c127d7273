package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"printshop-scheduler/internal/logging"
	"printshop-scheduler/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to url, pings, and applies the migration at migrations when
// it is non-empty. Close the returned pool when done.
func Open(ctx context.Context, url, migrations string) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	s := New(pool)
	if migrations != "" {
		if err := s.Migrate(ctx, migrations); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	logging.FromContext(ctx).Info("connected to postgres")
	return s, pool, nil
}

// Migrate applies the schema file at path. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// do runs a single statement, retrying it once if the connection failed.
// The pool drops broken connections, so the retry runs on a fresh one.
func (s *Store) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.run(ctx, op, transient, fn)
}

// write is do for statements whose replay is not harmless. A failure after
// the statement was sent may hide a commit, so it is retried only when pgconn
// reports nothing reached the server.
func (s *Store) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.run(ctx, op, unsent, fn)
}

func (s *Store) run(ctx context.Context, op string, retry func(error) bool, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || !transient(err) {
		return mapErr(op, err)
	}
	if !retry(err) {
		return fmt.Errorf("%s: %w: %v", op, model.ErrTransientStore, err)
	}
	logging.FromContext(ctx).Warn("store: connection failure, retrying once", "op", op, "error", err)
	err = fn(ctx)
	if err == nil {
		return nil
	}
	if transient(err) {
		return fmt.Errorf("%s: %w: %v", op, model.ErrTransientStore, err)
	}
	return mapErr(op, err)
}

func unsent(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception; 57P01..03: server shutting down
		return len(pgErr.Code) == 5 && (pgErr.Code[:2] == "08" || pgErr.Code == "57P01" || pgErr.Code == "57P02" || pgErr.Code == "57P03")
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func mapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, model.ErrDuplicate)
		case "23503":
			return fmt.Errorf("%s: %w", op, model.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
