package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender   `json:"sender"`
	To          []BrevoTo     `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
	ReplyTo     *BrevoReplyTo `json:"replyTo,omitempty"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoReplyTo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Sender delivers the owner-facing inquiry email. Nil = no-op.
type Sender interface {
	SendInquiry(ctx context.Context, toEmail string, inq Inquiry) error
}

// BrevoClient sends emails via the Brevo (Sendinblue) API.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@homilet.in"
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "Homilet"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoReplyTo{Email: "support@homilet.in", Name: "Homilet Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendInquiry notifies the listing owner about a new contact message. The
// sender's email goes into reply-to so the owner can answer directly.
func (c *BrevoClient) SendInquiry(ctx context.Context, toEmail string, inq Inquiry) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "Homilet"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     fmt.Sprintf("New inquiry for %s", inq.PropertyTitle),
		HTMLContent: EmailLayout(inquiryContent(inq)),
	}
	if inq.Email != "" {
		body.ReplyTo = &BrevoReplyTo{Email: inq.Email, Name: inq.Name}
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

func inquiryContent(inq Inquiry) string {
	phone := inq.Phone
	if phone == "" {
		phone = "not provided"
	}
	return fmt.Sprintf(`
    <h1>Someone is interested in your listing</h1>
    <p><strong>%s</strong> sent an inquiry about <strong>%s</strong>.</p>
    <h2>Their message</h2>
    <p>%s</p>
    <h2>Contact details</h2>
    <p>Email: <a href="mailto:%s">%s</a><br/>Phone: %s</p>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">
      Reply to this email to respond directly, or call the number above.
    </p>`,
		htmlEscape(inq.Name), htmlEscape(inq.PropertyTitle), htmlEscape(inq.Message),
		htmlEscape(inq.Email), htmlEscape(inq.Email), htmlEscape(phone))
}
