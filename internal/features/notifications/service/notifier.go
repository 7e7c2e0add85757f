package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/features/notifications/ports"
	parceldomain "parcel-tracker/internal/features/parcels/domain"

	"go.uber.org/zap"
)

// Notifier renders and delivers customer emails, and mirrors each one to
// the optional webhook.
type Notifier struct {
	mailer      ports.Mailer
	hook        ports.Hook
	frontendURL string
	now         func() time.Time
}

// NewNotifier creates a Notifier. hook may be nil.
func NewNotifier(mailer ports.Mailer, hook ports.Hook, frontendURL string) *Notifier {
	return &Notifier{
		mailer:      mailer,
		hook:        hook,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

// HookPayload is the JSON body posted to the webhook.
type HookPayload struct {
	Kind    string                    `json:"kind"`
	To      string                    `json:"to"`
	Subject string                    `json:"subject"`
	Event   *parceldomain.ChangeEvent `json:"event,omitempty"`
}

// Notify emails the customer about a parcel change.
func (n *Notifier) Notify(ctx context.Context, to identity.Contact, ev parceldomain.ChangeEvent) error {
	status := string(ev.Status)
	msg, ok := statusMessages[status]
	if !ok {
		msg = defaultStatusMessage
	}

	subject := "Parcel Status Update - " + ev.TrackingNumber
	if ev.Type == parceldomain.EventParcelCreated {
		subject = "Parcel Booked - " + ev.TrackingNumber
	}

	html, err := render(statusTemplate, statusData{
		Name:           to.Name,
		TrackingNumber: ev.TrackingNumber,
		Status:         strings.ToUpper(status),
		Message:        msg,
		Notes:          ev.Notes,
		TrackURL:       n.frontendURL + "/track/" + ev.TrackingNumber,
	})
	if err != nil {
		return err
	}
	return n.deliver(ctx, to, subject, html, HookPayload{Kind: string(ev.Type), To: to.Email, Subject: subject, Event: &ev})
}

// Welcome greets a newly registered account.
func (n *Notifier) Welcome(ctx context.Context, to identity.Contact) error {
	subject := "Welcome to Courier Pro"
	html, err := render(welcomeTemplate, welcomeData{
		Name:         to.Name,
		DashboardURL: n.frontendURL + "/dashboard",
		Year:         n.now().Year(),
	})
	if err != nil {
		return err
	}
	return n.deliver(ctx, to, subject, html, HookPayload{Kind: "welcome", To: to.Email, Subject: subject})
}

func (n *Notifier) deliver(ctx context.Context, to identity.Contact, subject, html string, payload HookPayload) error {
	var errs []error
	if err := n.mailer.Send(ctx, to.Email, subject, html); err != nil {
		errs = append(errs, fmt.Errorf("send email: %w", err))
	} else {
		logger.Get().Info("Email sent", zap.String("to", to.Email), zap.String("subject", subject))
	}
	if n.hook != nil {
		if err := n.hook.Post(ctx, payload); err != nil {
			errs = append(errs, fmt.Errorf("post webhook: %w", err))
		}
	}
	return errors.Join(errs...)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
