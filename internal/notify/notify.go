// Package notify delivers transactional email without blocking the caller.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"printshop-scheduler/internal/logging"
	"printshop-scheduler/internal/worker"
)

type Message struct {
	From    string    `json:"from"`
	To      []string  `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Date    time.Time `json:"date"`
}

// Transport delivers one message synchronously.
type Transport interface {
	Send(ctx context.Context, m Message) error
}

// Prober checks that an address can plausibly receive mail.
type Prober interface {
	Probe(ctx context.Context, address string) error
}

// Scheduler is satisfied by *worker.Pool.
type Scheduler interface {
	Submit(ctx context.Context, name string, fn worker.Task) bool
}

type Dispatcher struct {
	transport Transport
	sched     Scheduler
	from      string
	prefix    string
	now       func() time.Time
}

func NewDispatcher(t Transport, s Scheduler, from, subjectPrefix string) *Dispatcher {
	return &Dispatcher{transport: t, sched: s, from: from, prefix: subjectPrefix, now: time.Now}
}

// Send schedules a single delivery attempt and returns immediately. It reports
// whether the task was queued; delivery failures are only logged.
func (d *Dispatcher) Send(ctx context.Context, recipients []string, subject, body string) bool {
	log := logging.FromContext(ctx)
	if len(recipients) == 0 {
		log.Warn("notification skipped: no recipients", "subject", subject)
		return false
	}
	m := Message{
		From:    d.from,
		To:      append([]string(nil), recipients...),
		Subject: d.prefix + subject,
		Body:    body,
		Date:    d.now(),
	}
	return d.sched.Submit(ctx, "notify", func(taskCtx context.Context) error {
		if err := d.transport.Send(taskCtx, m); err != nil {
			return errors.Wrapf(err, "send %q to %v", m.Subject, m.To)
		}
		logging.FromContext(taskCtx).Info("notification sent", "to", m.To, "subject", m.Subject)
		return nil
	})
}

// Probe validates a candidate address with the configured prober.
func Probe(ctx context.Context, p Prober, address string) error {
	if p == nil {
		return nil
	}
	if err := p.Probe(ctx, address); err != nil {
		return fmt.Errorf("address %s unreachable: %w", address, err)
	}
	return nil
}
