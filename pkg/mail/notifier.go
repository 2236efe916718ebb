package mail

import (
	"context"
	"fmt"
)

// Notifier dispatches the account-lifecycle emails. Implementations must not
// mutate application state; callers treat delivery as best effort.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, code string) error
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendPasswordResetEmail(ctx context.Context, email, resetURL string) error
	SendResetSuccessEmail(ctx context.Context, email string) error
}

// EmailNotifier renders plain-text account emails and hands them to a Mailer.
type EmailNotifier struct {
	mailer  Mailer
	appName string
}

// NewEmailNotifier wires a Notifier on top of the given Mailer.
func NewEmailNotifier(mailer Mailer, appName string) *EmailNotifier {
	if appName == "" {
		appName = "AuthGate"
	}
	return &EmailNotifier{mailer: mailer, appName: appName}
}

func (n *EmailNotifier) SendVerificationEmail(ctx context.Context, email, code string) error {
	body := fmt.Sprintf(
		"Hello,\n\nThank you for signing up! Your verification code is:\n\n%s\n\nEnter this code on the verification page to complete your registration.\nThis code expires in 24 hours.\n\nIf you did not create an account, you can ignore this message.\n",
		code,
	)
	return n.send(ctx, email, "Verify your email", body)
}

func (n *EmailNotifier) SendWelcomeEmail(ctx context.Context, email, name string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour email address has been verified and your %s account is ready to use.\n\nWelcome aboard!\n",
		name, n.appName,
	)
	return n.send(ctx, email, fmt.Sprintf("Welcome to %s", n.appName), body)
}

func (n *EmailNotifier) SendPasswordResetEmail(ctx context.Context, email, resetURL string) error {
	body := fmt.Sprintf(
		"Hello,\n\nWe received a request to reset your password. Click the link below to choose a new one:\n\n%s\n\nThis link expires in 1 hour. If you did not request a password reset, you can ignore this message.\n",
		resetURL,
	)
	return n.send(ctx, email, "Reset your password", body)
}

func (n *EmailNotifier) SendResetSuccessEmail(ctx context.Context, email string) error {
	body := "Hello,\n\nYour password was changed successfully. If you did not perform this change, please contact support immediately.\n"
	return n.send(ctx, email, "Your password was reset", body)
}

func (n *EmailNotifier) send(ctx context.Context, to, subject, body string) error {
	if n.mailer == nil {
		return ErrSMTPDisabled
	}
	return n.mailer.Send(ctx, Message{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
}
