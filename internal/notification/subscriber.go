package notification

import (
	"context"
	"log/slog"

	"github.com/Captainsparrow404/neuvii-backend/internal/core/events"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
)

// Subscriber listens for provisioning events and sends the welcome
// message. A failed send is logged once; there is no retry and no
// effect on the committed entity.
type Subscriber struct {
	mailer  Mailer
	baseURL string
	logger  *slog.Logger
}

func NewSubscriber(mailer Mailer, baseURL string, logger *slog.Logger) *Subscriber {
	return &Subscriber{mailer: mailer, baseURL: baseURL, logger: logger}
}

func (s *Subscriber) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeUserProvisioned, s.handleUserProvisioned)
}

func (s *Subscriber) handleUserProvisioned(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.UserProvisionedEvent)
	if !ok {
		s.logger.Error("unexpected event payload", "event_type", event.EventType())
		return nil
	}

	msg := ComposeWelcome(s.baseURL, identity.Role(evt.Role), evt.Email, evt.FirstName, evt.TempPassword)
	if err := s.mailer.Send(ctx, msg.To, msg.Subject, msg.Body); err != nil {
		s.logger.Error("welcome message delivery failed",
			"user_id", evt.UserID,
			"email", evt.Email,
			"error", err)
		return err
	}

	s.logger.Info("welcome message sent", "user_id", evt.UserID, "email", evt.Email)
	return nil
}
