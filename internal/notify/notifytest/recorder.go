// Package notifytest provides a transport that records messages instead of
// sending them.
package notifytest

import (
	"context"
	"sync"

	"printshop-scheduler/internal/notify"
)

// Recorder keeps every message it is given. Err, when set, is returned from
// Send after recording.
type Recorder struct {
	mu   sync.Mutex
	sent []notify.Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, m notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return r.Err
}

func (r *Recorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.sent...)
}
