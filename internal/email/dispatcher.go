package email

import (
	"context"
	"fmt"

	"rentease/pkg/config"
	"rentease/pkg/kafka"
)

// Dispatcher turns mail events from the queue into outgoing emails. It is
// wired into the consumer as its message handler.
type Dispatcher struct {
	sender Sender
	cfg    *config.Config
}

func NewDispatcher(sender Sender, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		cfg:    cfg,
	}
}

// Handle routes one message by its event type. Unknown event types are
// logged and dropped so a bad producer cannot wedge the consumer group.
func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	eventType := msg.GetEventType()

	switch eventType {
	case EventUserRegistered:
		return d.handleUserRegistered(ctx, msg)
	case EventUserIDVerified:
		return d.handleUserIDVerified(ctx, msg)
	case EventBookingStatusChanged:
		return d.handleBookingStatusChanged(ctx, msg)
	default:
		d.cfg.Log.Warn("Skipping message with unknown event type",
			"event_type", eventType,
			"event_id", msg.GetEventID(),
		)
		return nil
	}
}

func (d *Dispatcher) handleUserRegistered(ctx context.Context, msg kafka.Message) error {
	var event VerificationEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("failed to decode verification event: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", d.cfg.FrontendURL, event.Token)
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Welcome to RentEase! Please confirm your email address by opening the link below:\n\n"+
			"%s\n\n"+
			"The link expires in %s. If you did not create this account, ignore this email.\n",
		event.FullName, link, d.cfg.VerifyTokenTTL,
	)

	return d.sender.Send(ctx, event.Email, "Verify your RentEase account", body)
}

func (d *Dispatcher) handleUserIDVerified(ctx context.Context, msg kafka.Message) error {
	var event IDVerifiedEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("failed to decode ID verified event: %w", err)
	}

	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your valid ID has been approved. You can now log in and book properties.\n\n"+
			"%s\n",
		event.FullName, d.cfg.FrontendURL,
	)

	return d.sender.Send(ctx, event.Email, "Your ID has been verified", body)
}

func (d *Dispatcher) handleBookingStatusChanged(ctx context.Context, msg kafka.Message) error {
	var event BookingStatusEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("failed to decode booking status event: %w", err)
	}

	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your booking for %s (%s to %s) is now %s.\n\n"+
			"Booking reference: %s\n",
		event.FullName,
		event.PropertyName,
		event.CheckIn.Format("Jan 2, 2006"),
		event.CheckOut.Format("Jan 2, 2006"),
		event.Status,
		event.BookingID,
	)

	subject := fmt.Sprintf("Booking %s: %s", event.Status, event.PropertyName)
	return d.sender.Send(ctx, event.Email, subject, body)
}
