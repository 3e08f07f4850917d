// Package email delivers one-time codes to users.
package email

import (
	"context"
	"fmt"
	"log/slog"
)

type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeReset  Purpose = "reset"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends a plaintext message. SMTPClient and PostmarkClient implement it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// CodeMessage builds the OTP mail for a flow.
func CodeMessage(purpose Purpose, to, code string) Message {
	subject := "Your OTP Code for Neurocalm Signup"
	flow := "Signup"
	if purpose == PurposeReset {
		subject = "Your OTP Code for Reset Password of Neurocalm Account"
		flow = "Reset Password"
	}
	body := fmt.Sprintf("Dear User,\n\n"+
		"Your One-Time Password (OTP) for %s is: %s\n\n"+
		"Please keep this code confidential and do not share it with anyone.\n"+
		"If you did not request this, please ignore this message.\n\n"+
		"Thank you,\nNeurocalm", flow, code)
	return Message{To: to, Subject: subject, Body: body}
}

// Service sends OTP codes through a Mailer.
type Service struct {
	mailer Mailer
}

func NewService(m Mailer) *Service {
	return &Service{mailer: m}
}

func (s *Service) SendCode(ctx context.Context, purpose Purpose, to, code string) error {
	if err := s.mailer.Send(ctx, CodeMessage(purpose, to, code)); err != nil {
		return fmt.Errorf("send %s code: %w", purpose, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Only for
// development without a mail relay; the body contains the code.
type LogMailer struct {
	Logger *slog.Logger
}

func (l LogMailer) Send(_ context.Context, msg Message) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("mail relay not configured, logging message", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
