package ports

import "context"

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Hook receives a JSON copy of every notification.
type Hook interface {
	Post(ctx context.Context, payload any) error
}
