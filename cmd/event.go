package cmd

import (
	"context"
	"time"

	"github.com/Captainsparrow404/neuvii-backend/internal/core/events"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	"github.com/Captainsparrow404/neuvii-backend/internal/notification"
	"github.com/Captainsparrow404/neuvii-backend/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus debugging commands",
	Long:  `Publish test events to verify bus wiring and welcome-mail composition`,
}

var welcomeEventCmd = &cobra.Command{
	Use:   "welcome [email]",
	Short: "Publish a test provisioning event",
	Long:  `Publish a provisioning event through the bus and print the composed welcome message without sending mail`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestWelcome(args[0])
	},
}

var eventRole string

func publishTestWelcome(email string) {
	logger.Init("text", "debug")
	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)

	eventBus.Subscribe(events.EventTypeUserProvisioned, func(ctx context.Context, event events.Event) error {
		evt := event.(*events.UserProvisionedEvent)
		msg := notification.ComposeWelcome("http://localhost:8000", identity.Role(evt.Role), evt.Email, evt.FirstName, evt.TempPassword)
		lg.Info("composed welcome message",
			"event_id", evt.EventID(),
			"to", msg.To,
			"subject", msg.Subject,
			"body_bytes", len(msg.Body))
		return nil
	})

	event := events.NewUserProvisionedEvent(0, email, "Test", eventRole, "temp-password-example")
	if err := eventBus.PublishSync(context.Background(), event); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	time.Sleep(50 * time.Millisecond)
	lg.Info("test event published successfully")
}

func init() {
	welcomeEventCmd.Flags().StringVar(&eventRole, "role", string(identity.RoleTherapist), "role on the test event")
	eventCmd.AddCommand(welcomeEventCmd)
}
