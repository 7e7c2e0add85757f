package adapters

import (
	"fmt"
	"time"

	"parcel-tracker/internal/core/config"
	"parcel-tracker/internal/features/notifications/ports"
)

const webhookTimeout = 10 * time.Second

// NewMailer builds the configured email provider behind a circuit breaker.
func NewMailer(cfg config.NotificationsConfig) (ports.Mailer, error) {
	switch cfg.Provider {
	case "", "log":
		return LogMailer{}, nil
	case "smtp":
		return NewBreakerMailer(NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromEmail, cfg.FromName)), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("notifications: SENDGRID_API_KEY is required for the sendgrid provider")
		}
		return NewBreakerMailer(NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)), nil
	default:
		return nil, fmt.Errorf("notifications: unknown email provider %q", cfg.Provider)
	}
}

// NewHook returns the configured webhook, or nil when none is set.
func NewHook(cfg config.NotificationsConfig) ports.Hook {
	if cfg.WebhookURL == "" {
		return nil
	}
	return NewBreakerHook(NewWebhook(cfg.WebhookURL, cfg.WebhookSecret, webhookTimeout))
}
