package services

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/mealbuddy/server/internal/config"
	"github.com/mealbuddy/server/internal/logging"
)

// Email is a single outbound notification.
type Email struct {
	To      string
	Subject string
	Text    string
}

// EmailProvider is the transport behind the notifier.
type EmailProvider interface {
	Send(ctx context.Context, email *Email) error
}

// EmailNotifier emails request owners about new invites and invitees about
// accepted matches. All sends are best-effort: failures are logged, never
// surfaced to the triggering user.
type EmailNotifier struct {
	provider EmailProvider
	from     string
	logger   *logging.Logger
}

func NewEmailNotifier(cfg *config.EmailConfig, logger *logging.Logger) *EmailNotifier {
	if logger == nil {
		logger = logging.Default
	}

	var provider EmailProvider
	switch cfg.Provider {
	case "resend":
		provider = NewResendProvider(cfg.ResendAPIKey, cfg.FromName, cfg.FromAddress)
	default:
		provider = NewConsoleProvider()
	}

	return &EmailNotifier{
		provider: provider,
		from:     fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
		logger:   logger,
	}
}

func (n *EmailNotifier) NotifyInviteReceived(ctx context.Context, ownerEmail, inviterEmail, requestDate string) {
	n.send(ctx, &Email{
		To:      ownerEmail,
		Subject: "You have a new MealBuddy invite",
		Text: fmt.Sprintf(
			"%s wants to join your meal request on %s. Open the app to view the invite.",
			inviterEmail, requestDate),
	})
}

func (n *EmailNotifier) NotifyMatchCreated(ctx context.Context, inviteeEmail, ownerName string) {
	n.send(ctx, &Email{
		To:      inviteeEmail,
		Subject: "It's a match!",
		Text: fmt.Sprintf(
			"%s accepted your invite. Open the app to start chatting.", ownerName),
	})
}

func (n *EmailNotifier) send(ctx context.Context, email *Email) {
	if err := n.provider.Send(ctx, email); err != nil {
		n.logger.Warn("email send failed", map[string]interface{}{
			"to":      email.To,
			"subject": email.Subject,
			"error":   err.Error(),
		})
	}
}

// ResendProvider sends email through the Resend API.
type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(apiKey, fromName, fromAddress string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromAddress),
	}
}

func (p *ResendProvider) Send(ctx context.Context, email *Email) error {
	params := &resend.SendEmailRequest{
		From:    p.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Text:    email.Text,
	}

	if _, err := p.client.Emails.Send(params); err != nil {
		return fmt.Errorf("sending email via Resend: %w", err)
	}

	logging.Info("email sent via Resend", map[string]interface{}{
		"to": email.To, "subject": email.Subject,
	})
	return nil
}

// ConsoleProvider logs emails instead of sending them, for development.
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Send(ctx context.Context, email *Email) error {
	logging.Info("email (console provider)", map[string]interface{}{
		"to":      email.To,
		"subject": email.Subject,
		"text":    email.Text,
	})
	return nil
}
