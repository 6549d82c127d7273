package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendgridTransport struct {
	key    string
	host   string
	client *rest.Client
}

func NewSendgridTransport(apiKey string) *SendgridTransport {
	return &SendgridTransport{
		key:    apiKey,
		host:   sendgridHost,
		client: &rest.Client{HTTPClient: &http.Client{Timeout: sendTimeout}},
	}
}

func (t *SendgridTransport) prepare(m Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.Subject
	for _, to := range m.To {
		p.AddTos(sgEmail(to))
	}
	v3 := sgmail.NewV3Mail()
	v3.SetFrom(sgEmail(m.From))
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", m.Body))
	return v3
}

func sgEmail(addr string) *sgmail.Email {
	if a, err := mail.ParseAddress(addr); err == nil {
		return sgmail.NewEmail(a.Name, a.Address)
	}
	return sgmail.NewEmail("", addr)
}

func (t *SendgridTransport) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := sendgrid.GetRequest(t.key, sendgridEndpoint, t.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(t.prepare(m))

	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	httpRes, err := t.client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return fmt.Errorf("sendgrid: read response: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
