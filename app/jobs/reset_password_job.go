// Package jobs defines the background jobs dispatched onto the queue.
// Register must be called once at boot so workers can deserialise them.
package jobs

import (
	"fmt"

	"dukaan/app/models"
	"dukaan/pkg/logger"
	"dukaan/pkg/notification"
	"dukaan/pkg/queue"
)

// Register wires every job type into the queue registry.
func Register() {
	queue.Register("*jobs.ResetPasswordJob", func() queue.Job { return &ResetPasswordJob{} })
	queue.Register("*jobs.DeliveryReceiptJob", func() queue.Job { return &DeliveryReceiptJob{} })
}

// ResetPasswordJob delivers a password-reset token out of band. The token
// travels only through this job; it is never part of an HTTP response.
type ResetPasswordJob struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Token string `json:"token"`
}

func (j *ResetPasswordJob) Via() []string {
	channels := make([]string, 0, 2)
	if j.Email != "" {
		channels = append(channels, "mail")
	}
	if j.Phone != "" {
		channels = append(channels, "sms")
	}
	return channels
}

func (j *ResetPasswordJob) ToMail() notification.MailData {
	return notification.MailData{
		To:      j.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>Use the code below to reset your password. It expires in one hour.</p><h2>%s</h2><p>If you did not request this, ignore this email.</p>",
			j.Name, j.Token),
		Text: fmt.Sprintf("Hi %s, your password reset code is %s. It expires in one hour.", j.Name, j.Token),
	}
}

func (j *ResetPasswordJob) ToSMS() notification.SMSData {
	return notification.SMSData{
		To:   j.Phone,
		Text: fmt.Sprintf("Your password reset code is %s. It expires in one hour.", j.Token),
	}
}

func (j *ResetPasswordJob) Handle() error {
	if errs := notification.Send(j.Email, j); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// DeliveryReceiptJob mails the customer once their order is delivered.
type DeliveryReceiptJob struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	OrderNumber string  `json:"orderNumber"`
	Total       float64 `json:"total"`
}

func (j *DeliveryReceiptJob) Via() []string { return []string{"mail"} }

func (j *DeliveryReceiptJob) ToMail() notification.MailData {
	return notification.MailData{
		To:      j.Email,
		Subject: fmt.Sprintf("Order %s delivered", j.OrderNumber),
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your order <strong>%s</strong> (₹%.2f) was delivered. Thanks for shopping with us.</p>",
			j.Name, j.OrderNumber, j.Total),
		Text: fmt.Sprintf("Hi %s, your order %s (%.2f) was delivered.", j.Name, j.OrderNumber, j.Total),
	}
}

func (j *DeliveryReceiptJob) Handle() error {
	if errs := notification.Send(j.Email, j); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// QueueNotifier dispatches reset tokens as queued jobs. It satisfies the
// notifier dependency of the auth service.
type QueueNotifier struct{}

func (QueueNotifier) SendResetToken(user *models.User, token string) {
	job := &ResetPasswordJob{
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
		Token: token,
	}
	if err := queue.Dispatch(job); err != nil {
		logger.Error("jobs: dispatch reset token", "error", err)
	}
}
