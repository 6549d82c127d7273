package notify

import (
	"context"
	"errors"
	"net"
	"strings"
)

var ErrNoMailHost = errors.New("domain has no mail exchanger")

// MXProber accepts an address when its domain publishes at least one MX record.
type MXProber struct {
	Resolver *net.Resolver
}

func (p MXProber) Probe(ctx context.Context, address string) error {
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ErrNoMailHost
	}
	r := p.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	mx, err := r.LookupMX(ctx, address[at+1:])
	if err != nil {
		return err
	}
	if len(mx) == 0 {
		return ErrNoMailHost
	}
	return nil
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, address string) error

func (f ProberFunc) Probe(ctx context.Context, address string) error { return f(ctx, address) }
