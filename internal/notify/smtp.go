package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

// sendTimeout bounds a send whose context carries no deadline.
const sendTimeout = 30 * time.Second

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// SMTPTransport dials the relay once per message. The connection carries the
// context deadline, so a relay that stops answering fails the send.
type SMTPTransport struct {
	cfg    SMTPConfig
	dialer net.Dialer
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", m.To...)
	msg.SetHeader("Subject", m.Subject)
	msg.SetDateHeader("Date", m.Date)
	msg.SetBody("text/plain", m.Body)

	c, stop, err := t.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	defer stop()
	defer c.Close()

	if err := gomail.Send(smtpSender{c}, msg); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	if err := c.Quit(); err != nil {
		return fmt.Errorf("smtp quit: %w", err)
	}
	return nil
}

func (t *SMTPTransport) dial(ctx context.Context) (*smtp.Client, func() bool, error) {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(sendTimeout)
	}
	_ = conn.SetDeadline(deadline)
	// cancellation unblocks any pending read or write
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })

	tlsCfg := &tls.Config{ServerName: t.cfg.Host}
	if t.cfg.Port == 465 {
		conn = tls.Client(conn, tlsCfg)
	}
	c, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		stop()
		conn.Close()
		return nil, nil, err
	}
	if ok, _ := c.Extension("STARTTLS"); ok && t.cfg.Port != 465 {
		if err := c.StartTLS(tlsCfg); err != nil {
			stop()
			c.Close()
			return nil, nil, err
		}
	}
	if t.cfg.User != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)); err != nil {
				stop()
				c.Close()
				return nil, nil, err
			}
		}
	}
	return c, stop, nil
}

// smtpSender lets gomail write an envelope to an open client.
type smtpSender struct{ c *smtp.Client }

func (s smtpSender) Send(from string, to []string, msg io.WriterTo) error {
	if err := s.c.Mail(from); err != nil {
		return err
	}
	for _, addr := range to {
		if err := s.c.Rcpt(addr); err != nil {
			return err
		}
	}
	w, err := s.c.Data()
	if err != nil {
		return err
	}
	if _, err := msg.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
