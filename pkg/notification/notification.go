// Package notification provides a multi-channel notification system for Dukaan.
//
// Define a Notification:
//
//	type ResetPasswordNotification struct { User models.User; Link string }
//	func (n *ResetPasswordNotification) Via() []string { return []string{"mail", "sms"} }
//	func (n *ResetPasswordNotification) ToMail() notification.MailData {
//	    return notification.MailData{
//	        Subject: "Reset your password",
//	        Body:    "<a href=\"" + n.Link + "\">Reset</a>",
//	    }
//	}
//	func (n *ResetPasswordNotification) ToSMS() notification.SMSData {
//	    return notification.SMSData{To: n.User.Phone, Text: "Reset link: " + n.Link}
//	}
//
// Send:
//
//	notification.Send(user.Email, &ResetPasswordNotification{User: user, Link: link})
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dukaan/pkg/logger"
	"dukaan/pkg/mail"
	"dukaan/pkg/workerpool"
)

// ------------------- Channel data structs -------------------

// MailData carries the data needed to send an email notification.
type MailData struct {
	To      string // overrides the notifiable address if set
	Subject string
	Body    string // HTML
	Text    string // plain-text fallback
}

// SMSData carries a text message posted to the configured SMS gateway.
type SMSData struct {
	To   string // E.164 or local phone number
	Text string
}

// WebhookData carries an arbitrary JSON payload to POST to a URL.
type WebhookData struct {
	URL     string
	Payload interface{}
	Headers map[string]string
}

// ------------------- Notification interface -------------------

// Notification is the interface every notification must satisfy.
type Notification interface {
	// Via returns the list of channel names: "mail", "sms", "webhook".
	Via() []string
}

// Mailable can be implemented to support the mail channel.
type Mailable interface {
	ToMail() MailData
}

// SMSable can be implemented to support the SMS channel.
type SMSable interface {
	ToSMS() SMSData
}

// Webhookable can be implemented to support the webhook channel.
type Webhookable interface {
	ToWebhook() WebhookData
}

// ------------------- Global config -------------------

var smsGatewayURL string

// SetSMSGateway sets the SMS provider's webhook endpoint. SMS sends are
// skipped (with a warning) when no gateway is configured.
func SetSMSGateway(url string) { smsGatewayURL = url }

// ------------------- Send -------------------

// Send dispatches the notification through all channels returned by Via().
// address is typically an email address used for the mail channel.
func Send(address string, n Notification) []error {
	var errs []error
	for _, channel := range n.Via() {
		if err := dispatch(address, channel, n); err != nil {
			logger.Error("notification: channel failed",
				"channel", channel, "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// pool bounds outbound notification concurrency so a burst of sends cannot
// exhaust SMTP or gateway connections.
var pool = workerpool.New(16)

// SendAsync dispatches the notification through the shared worker pool,
// falling back to a plain goroutine when the pool is saturated.
func SendAsync(address string, n Notification) {
	task := func() {
		if errs := Send(address, n); len(errs) > 0 {
			for _, e := range errs {
				logger.Error("notification: async error", "error", e)
			}
		}
	}
	if err := pool.Submit(task); err != nil {
		go task()
	}
}

func dispatch(address, channel string, n Notification) error {
	switch channel {
	case "mail":
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		return sendMail(address, m.ToMail())

	case "sms":
		s, ok := n.(SMSable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement SMSable", n)
		}
		return sendSMS(s.ToSMS())

	case "webhook":
		wh, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Webhookable", n)
		}
		return sendWebhook(wh.ToWebhook())

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

// ------------------- Mail channel -------------------

func sendMail(address string, d MailData) error {
	to := d.To
	if to == "" {
		to = address
	}

	body := d.Body
	if body == "" {
		body = d.Text
	}

	return mail.To(to).Subject(d.Subject).Body(body).Send()
}

// ------------------- SMS channel -------------------

func sendSMS(d SMSData) error {
	if smsGatewayURL == "" {
		logger.Warn("notification: SMS gateway not configured, skipping", "to", d.To)
		return nil
	}
	if d.To == "" {
		return fmt.Errorf("notification: sms recipient is empty")
	}

	return sendWebhook(WebhookData{
		URL:     smsGatewayURL,
		Payload: map[string]string{"to": d.To, "text": d.Text},
	})
}

// ------------------- Webhook channel -------------------

func sendWebhook(d WebhookData) error {
	if d.URL == "" {
		return fmt.Errorf("notification: webhook URL is empty")
	}

	raw, err := json.Marshal(d.Payload)
	if err != nil {
		return fmt.Errorf("notification: webhook marshal: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, d.URL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notification: webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: webhook send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
