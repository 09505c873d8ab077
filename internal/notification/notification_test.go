package notification_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Captainsparrow404/neuvii-backend/internal/core/events"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	"github.com/Captainsparrow404/neuvii-backend/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

type mockMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var _ = Describe("ComposeWelcome", func() {
	It("builds a reset link carrying the temporary credential", func() {
		msg := notification.ComposeWelcome("https://app.neuvii.com/", identity.RoleTherapist,
			"tess@north.example", "Tess", "Temp#Pass+12")

		Expect(msg.To).To(Equal("tess@north.example"))
		Expect(msg.Subject).To(Equal("Welcome to Neuvii - Therapist Account Created"))
		Expect(msg.Body).To(ContainSubstring(
			"https://app.neuvii.com/auth/reset-password/?email=tess%40north.example&temp_password=Temp%23Pass%2B12"))
		Expect(msg.Body).To(ContainSubstring("Temporary Password: Temp#Pass+12"))
		Expect(msg.Body).To(ContainSubstring("Welcome to Neuvii, Tess!"))
	})

	It("varies the subject and capability summary by role", func() {
		adminMsg := notification.ComposeWelcome("http://localhost:8080", identity.RoleClinicAdmin,
			"a@example.com", "Jane", "pw")
		parentMsg := notification.ComposeWelcome("http://localhost:8080", identity.RoleParent,
			"p@example.com", "Paula", "pw")

		Expect(adminMsg.Subject).To(ContainSubstring("Clinic Admin"))
		Expect(adminMsg.Body).To(ContainSubstring("Manage therapists and clients"))
		Expect(parentMsg.Subject).To(ContainSubstring("Parent"))
		Expect(parentMsg.Body).To(ContainSubstring("View your child's therapy progress"))
	})

	It("falls back to a generic subject for unmapped roles", func() {
		msg := notification.ComposeWelcome("http://localhost:8080", identity.RoleSystemAdmin,
			"root@example.com", "Root", "pw")
		Expect(msg.Subject).To(Equal("Welcome to Neuvii - Your Account Details"))
	})
})

var _ = Describe("Subscriber", func() {
	var (
		mailer *mockMailer
		bus    *events.EventBus
	)

	BeforeEach(func() {
		discard := slog.New(slog.NewTextHandler(io.Discard, nil))
		mailer = &mockMailer{}
		bus = events.NewEventBus(discard)
		notification.NewSubscriber(mailer, "http://localhost:8080", discard).Register(bus)
	})

	It("sends the welcome message for a provisioning event", func() {
		event := events.NewUserProvisionedEvent(7, "tess@north.example", "Tess",
			string(identity.RoleTherapist), "Temp#Pass123")
		Expect(bus.PublishSync(context.Background(), event)).To(Succeed())

		Expect(mailer.sent).To(HaveLen(1))
		Expect(mailer.sent[0].to).To(Equal("tess@north.example"))
		Expect(mailer.sent[0].body).To(ContainSubstring("Temp#Pass123"))
	})

	It("reports delivery failures to the bus", func() {
		mailer.err = errors.New("smtp unreachable")
		event := events.NewUserProvisionedEvent(7, "tess@north.example", "Tess",
			string(identity.RoleTherapist), "Temp#Pass123")
		Expect(bus.PublishSync(context.Background(), event)).NotTo(Succeed())
	})
})
