package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"storyfetch/internal/config"
	"storyfetch/internal/services"
)

const (
	subject     = "Stories of the day"
	displayName = "Instagram Stories"
	playImage   = "https://cdn.pixabay.com/photo/2017/11/10/05/34/play-2935460_960_720.png"
)

// Sender is the transport surface used to deliver a composed message.
// *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// Notifier emails the mailing list a link to the published daily video.
type Notifier struct {
	email  config.Email
	sender Sender
	logger *slog.Logger
}

// Option configures the notifier.
type Option func(*Notifier)

// WithSender injects a custom transport (primarily for tests).
func WithSender(sender Sender) Option {
	return func(n *Notifier) {
		if sender != nil {
			n.sender = sender
		}
	}
}

// New constructs a notifier delivering over implicit-TLS SMTP with
// authentication.
func New(email config.Email, smtp config.SMTP, logger *slog.Logger, opts ...Option) (*Notifier, error) {
	notifier := &Notifier{
		email:  email,
		logger: logger.With("component", "notifier"),
	}

	for _, opt := range opts {
		opt(notifier)
	}

	if notifier.sender == nil {
		client, err := mail.NewClient(smtp.Host,
			mail.WithPort(smtp.Port),
			mail.WithSSL(),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(smtp.Username),
			mail.WithPassword(smtp.Password),
		)
		if err != nil {
			return nil, services.Wrap(services.ErrMail, "notify", "build smtp client", err)
		}
		notifier.sender = client
	}

	return notifier, nil
}

// Notify composes and sends the daily summary to every configured address
// in a single send. Transport or auth failures are fatal; there is no retry
// and no per-recipient delivery tracking.
func (n *Notifier) Notify(ctx context.Context, signedURL string, date time.Time) error {
	msg, err := BuildMessage(n.email, signedURL, date)
	if err != nil {
		return services.Wrap(services.ErrMail, "notify", "compose message", err)
	}

	n.logger.Info("sending notification email", "recipients", len(n.email.MailingList))
	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return services.Wrap(services.ErrMail, "notify", "send message", err)
	}
	return nil
}

// BuildMessage assembles the dual-part (plain + HTML) summary referencing
// the signed URL and the target date.
func BuildMessage(email config.Email, signedURL string, date time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(displayName, email.FromAddress); err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(email.MailingList...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(subject)

	label := fmt.Sprintf("Stories of %s", date.Format("02, Jan 2006"))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("%s: %s", label, signedURL))
	msg.AddAlternativeString(mail.TypeTextHTML, fmt.Sprintf(`<html>
  <body>
    <p>%s</p>
    <a href="%s">
      <img width="150" height="150" src="%s" />
    </a>
  </body>
</html>
`, label, signedURL, playImage))

	return msg, nil
}
