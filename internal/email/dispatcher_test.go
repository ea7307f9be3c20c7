package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"rentease/pkg/config"
	"rentease/pkg/kafka"
	"rentease/pkg/logger"
)

type capturedMail struct {
	to      string
	subject string
	body    string
}

type captureSender struct {
	sent []capturedMail
	err  error
}

func (s *captureSender) Send(ctx context.Context, to string, subject string, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, capturedMail{to: to, subject: subject, body: body})
	return nil
}

func testDispatcher(t *testing.T) (*Dispatcher, *captureSender) {
	t.Helper()

	sender := &captureSender{}
	cfg := &config.Config{
		ServiceName:    "test",
		FrontendURL:    "https://rentease.example.com",
		VerifyTokenTTL: 24 * time.Hour,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}

	return NewDispatcher(sender, cfg), sender
}

func TestHandle_VerificationEmailCarriesTokenLink(t *testing.T) {
	dispatcher, sender := testDispatcher(t)

	msg := kafka.NewMessage().
		WithKey("507f1f77bcf86cd799439011").
		WithEventType(EventUserRegistered).
		WithValue(VerificationEvent{
			UserID:   "507f1f77bcf86cd799439011",
			Email:    "new@example.com",
			FullName: "Juan Dela Cruz",
			Token:    "sealed-token",
		}).
		Build()

	if err := dispatcher.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(sender.sent))
	}

	mail := sender.sent[0]
	if mail.to != "new@example.com" {
		t.Errorf("expected mail to new@example.com, got %q", mail.to)
	}
	if !strings.Contains(mail.body, "https://rentease.example.com/verify-email?token=sealed-token") {
		t.Errorf("expected verification link in body, got %q", mail.body)
	}
}

func TestHandle_BookingStatusEmail(t *testing.T) {
	dispatcher, sender := testDispatcher(t)

	msg := kafka.NewMessage().
		WithKey("507f1f77bcf86cd799439011").
		WithEventType(EventBookingStatusChanged).
		WithValue(BookingStatusEvent{
			BookingID:    "64b000000000000000000010",
			Email:        "guest@example.com",
			FullName:     "Juan Dela Cruz",
			PropertyName: "Cozy Apartment",
			Status:       "approved",
			CheckIn:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			CheckOut:     time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		}).
		Build()

	if err := dispatcher.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(sender.sent))
	}

	mail := sender.sent[0]
	if !strings.Contains(mail.subject, "approved") {
		t.Errorf("expected status in subject, got %q", mail.subject)
	}
	if !strings.Contains(mail.body, "Cozy Apartment") {
		t.Errorf("expected property name in body, got %q", mail.body)
	}
}

func TestHandle_UnknownEventTypeIsDropped(t *testing.T) {
	dispatcher, sender := testDispatcher(t)

	msg := kafka.NewMessage().
		WithKey("507f1f77bcf86cd799439011").
		WithEventType("user.deleted").
		WithValue(map[string]string{"user_id": "507f1f77bcf86cd799439011"}).
		Build()

	if err := dispatcher.Handle(context.Background(), msg); err != nil {
		t.Fatalf("expected unknown events to be dropped without error, got %v", err)
	}

	if len(sender.sent) != 0 {
		t.Errorf("expected no mail for unknown event type, got %d", len(sender.sent))
	}
}

func TestHandle_MalformedPayloadReturnsError(t *testing.T) {
	dispatcher, _ := testDispatcher(t)

	msg := kafka.Message{
		Key:     "507f1f77bcf86cd799439011",
		Value:   []byte("{not-json"),
		Headers: map[string]string{kafka.HeaderEventType: EventUserRegistered},
	}

	if err := dispatcher.Handle(context.Background(), msg); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
