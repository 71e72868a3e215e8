package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	config "github.com/phillip/travel-planner-go/config"
	models "github.com/phillip/travel-planner-go/models"
)

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, to, name, subject, htmlBody string) error
}

// email request payload for ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type toRecipient struct {
	Email emailWithName `json:"email_address"`
}

type emailWithName struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type ZeptoMailer struct {
	cfg    config.MailConfig
	client *http.Client
}

func NewZeptoMailer(cfg config.MailConfig) *ZeptoMailer {
	return &ZeptoMailer{cfg: cfg, client: &http.Client{Timeout: 15 * time.Second}}
}

// Send posts one HTML email through the ZeptoMail HTTP API.
func (m *ZeptoMailer) Send(ctx context.Context, to, name, subject, htmlBody string) error {
	payload := emailRequest{
		From:     emailAddress{Address: m.cfg.From},
		To:       []toRecipient{{Email: emailWithName{Address: to, Name: name}}},
		Subject:  subject,
		HtmlBody: htmlBody,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}
	return nil
}

// NoopMailer drops every message; used when mail is not configured.
type NoopMailer struct{}

func (NoopMailer) Send(context.Context, string, string, string, string) error { return nil }

var bookingEmail = template.Must(template.New("booking").Parse(`<p>Hi {{.Name}},</p>
<p>{{.Intro}}</p>
<table>
<tr><td>Reference</td><td><strong>{{.Booking.BookingReference}}</strong></td></tr>
<tr><td>Type</td><td>{{.Booking.Type}}</td></tr>
<tr><td>Starts</td><td>{{.Booking.StartDate.Format "Mon, 02 Jan 2006"}}</td></tr>
{{- with .Booking.Hotel}}
<tr><td>Stay</td><td>{{.Name}}, {{.Nights}} night(s)</td></tr>
{{- end}}
<tr><td>Total</td><td>{{printf "%.2f" .Booking.Pricing.Total}} {{.Booking.Pricing.Currency}}</td></tr>
{{- if .Booking.Cancellation}}
<tr><td>Refund</td><td>{{printf "%.2f" .Booking.Cancellation.RefundAmount}} {{.Booking.Pricing.Currency}}</td></tr>
{{- end}}
</table>`))

// BookingEmail renders the confirmation or cancellation notice of a booking.
func BookingEmail(b *models.Booking, name string) (subject, body string, err error) {
	intro := "Your booking has been received."
	subject = "Booking received: " + b.BookingReference
	if b.Status == models.BookingCancelled {
		intro = "Your booking has been cancelled."
		subject = "Booking cancelled: " + b.BookingReference
	}

	var buf bytes.Buffer
	err = bookingEmail.Execute(&buf, struct {
		Name    string
		Intro   string
		Booking *models.Booking
	}{name, intro, b})
	if err != nil {
		return "", "", fmt.Errorf("render booking email: %w", err)
	}
	return subject, buf.String(), nil
}
