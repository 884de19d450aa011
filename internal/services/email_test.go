package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mealbuddy/server/internal/config"
	"github.com/mealbuddy/server/internal/logging"
)

type recordingProvider struct {
	sent []*Email
	err  error
}

func (p *recordingProvider) Send(ctx context.Context, email *Email) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, email)
	return nil
}

func TestEmailNotifier_NotifyInviteReceived(t *testing.T) {
	provider := &recordingProvider{}
	notifier := &EmailNotifier{provider: provider, logger: logging.Default}

	notifier.NotifyInviteReceived(context.Background(),
		"owner@example.com", "inviter@example.com", "2026-09-12")

	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(provider.sent))
	}
	email := provider.sent[0]
	if email.To != "owner@example.com" {
		t.Fatalf("unexpected recipient: %s", email.To)
	}
	if !strings.Contains(email.Text, "inviter@example.com") || !strings.Contains(email.Text, "2026-09-12") {
		t.Fatalf("email body missing invite details: %q", email.Text)
	}
}

func TestEmailNotifier_NotifyMatchCreated(t *testing.T) {
	provider := &recordingProvider{}
	notifier := &EmailNotifier{provider: provider, logger: logging.Default}

	notifier.NotifyMatchCreated(context.Background(), "candidate@example.com", "Alex")

	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(provider.sent))
	}
	if provider.sent[0].To != "candidate@example.com" {
		t.Fatalf("unexpected recipient: %s", provider.sent[0].To)
	}
}

func TestEmailNotifier_SendFailureIsSwallowed(t *testing.T) {
	provider := &recordingProvider{err: errors.New("smtp down")}
	notifier := &EmailNotifier{provider: provider, logger: logging.Default}

	// Best-effort: a failing provider must not panic or surface an error.
	notifier.NotifyInviteReceived(context.Background(),
		"owner@example.com", "inviter@example.com", "2026-09-12")
}

func TestNewEmailNotifier_ProviderSelection(t *testing.T) {
	console := NewEmailNotifier(&config.EmailConfig{Provider: "console"}, nil)
	if _, ok := console.provider.(*ConsoleProvider); !ok {
		t.Fatalf("expected console provider, got %T", console.provider)
	}

	resend := NewEmailNotifier(&config.EmailConfig{
		Provider: "resend", ResendAPIKey: "key",
		FromName: "MealBuddy", FromAddress: "noreply@mealbuddy.app",
	}, nil)
	if _, ok := resend.provider.(*ResendProvider); !ok {
		t.Fatalf("expected resend provider, got %T", resend.provider)
	}
}

func TestConsoleProvider_Send(t *testing.T) {
	provider := NewConsoleProvider()
	err := provider.Send(context.Background(), &Email{
		To: "a@example.com", Subject: "hi", Text: "hello",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
