package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/brightlens/brokerportal/internal/domain/entity"
	"github.com/brightlens/brokerportal/pkg/helpers"
)

// EmailSender delivers a rendered email message.
type EmailSender interface {
	Send(ctx context.Context, to, subject, text string) error
}

// SMSSender delivers a rendered text message.
type SMSSender interface {
	Send(ctx context.Context, to, text string) error
}

// Dispatcher renders a named template and hands it to the channel's
// transport. Unconfigured transports degrade to logging the would-be
// message and reporting success, so the flow keeps working in
// development without live credentials.
type Dispatcher struct {
	Email  EmailSender            // nil when Mailgun is not configured
	SMS    SMSSender              // nil when the SMS gateway is not configured
	Pub    *helpers.RabbitPublisher // optional async path for email
	Logger *logrus.Logger
}

func NewDispatcher(email EmailSender, sms SMSSender, pub *helpers.RabbitPublisher, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{Email: email, SMS: sms, Pub: pub, Logger: logger}
}

// Send reports delivery success. Transport errors are logged and
// returned as false, never propagated as panics; callers decide whether
// a failed dispatch is fatal.
func (d *Dispatcher) Send(ctx context.Context, ch entity.Channel, recipient, template string, vars map[string]string) bool {
	subject, body, err := Render(template, vars)
	if err != nil {
		d.Logger.WithError(err).WithField("template", template).Error("notification render failed")
		return false
	}

	switch ch {
	case entity.ChannelEmail:
		if d.Pub != nil {
			if err := d.Pub.PublishJSON(ctx, Job{To: recipient, Subject: subject, Text: body}); err != nil {
				d.Logger.WithError(err).WithField("to", recipient).Warn("email enqueue failed")
				return false
			}
			return true
		}
		if d.Email == nil {
			d.logFallback("email", recipient, subject, body)
			return true
		}
		if err := d.Email.Send(ctx, recipient, subject, body); err != nil {
			d.Logger.WithError(err).WithField("to", recipient).Warn("email send failed")
			return false
		}
		return true

	case entity.ChannelSMS:
		if d.SMS == nil {
			d.logFallback("sms", recipient, "", body)
			return true
		}
		if err := d.SMS.Send(ctx, recipient, body); err != nil {
			d.Logger.WithError(err).WithField("to", recipient).Warn("sms send failed")
			return false
		}
		return true
	}

	d.Logger.WithField("channel", ch).Error("unknown notification channel")
	return false
}

func (d *Dispatcher) logFallback(channel, recipient, subject, body string) {
	d.Logger.WithFields(logrus.Fields{
		"channel": channel,
		"to":      recipient,
		"subject": subject,
		"body":    body,
	}).Info("notification transport not configured, logging instead")
}
