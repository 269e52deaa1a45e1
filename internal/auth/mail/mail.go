// Package mail delivers the account emails: address confirmation and
// password reset links.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Links builds the URLs placed in account emails.
type Links struct {
	BaseURL string
}

func (l Links) link(path, token string) string {
	return strings.TrimSuffix(l.BaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

// Confirmation is the message sent after sign-up.
func (l Links) Confirmation(to, token string) Message {
	return Message{
		To:      to,
		Subject: "Confirm your Pocketbook email address",
		Body: fmt.Sprintf(
			"Welcome to Pocketbook.\n\nConfirm your email address by opening:\n\n%s\n\nThe link is valid for 24 hours.\n",
			l.link("/verify-email", token),
		),
	}
}

// PasswordReset is the message sent for a reset request.
func (l Links) PasswordReset(to, token string) Message {
	return Message{
		To:      to,
		Subject: "Reset your Pocketbook password",
		Body: fmt.Sprintf(
			"Someone asked to reset the password for this address.\n\nChoose a new password by opening:\n\n%s\n\nThe link is valid for 1 hour. If this wasn't you, ignore this email.\n",
			l.link("/reset-password", token),
		),
	}
}

// LogMailer logs messages instead of sending them. It is used when no SMTP
// host is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	slogx.FromContext(ctx).Info("email not sent, no smtp host configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// Recorder keeps sent messages in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Message{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// TokenFrom extracts the token query parameter from a message body.
func TokenFrom(msg Message) string {
	for _, field := range strings.Fields(msg.Body) {
		u, err := url.Parse(field)
		if err != nil || u.Scheme == "" {
			continue
		}
		if tok := u.Query().Get("token"); tok != "" {
			return tok
		}
	}
	return ""
}
