package clinic_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/clinic"
	clinicpg "github.com/Captainsparrow404/neuvii-backend/internal/clinic/postgres"
	"github.com/Captainsparrow404/neuvii-backend/internal/core/events"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	"github.com/Captainsparrow404/neuvii-backend/internal/notification"
	"github.com/Captainsparrow404/neuvii-backend/internal/provisioning"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestClinic(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Clinic Suite")
}

var _ = Describe("Service", func() {
	var (
		db        *gorm.DB
		service   *clinic.Service
		ctx       context.Context
		superuser *accesscontrol.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(
			&identity.RoleRecord{},
			&identity.Group{},
			&identity.Permission{},
			&identity.User{},
			&identity.UserGroup{},
			&identity.UserPermission{},
			&clinic.Clinic{},
		)
		Expect(err).NotTo(HaveOccurred())

		discard := slog.New(slog.NewTextHandler(io.Discard, nil))
		engine := provisioning.NewEngine(discard, bcrypt.MinCost)
		service = clinic.NewService(clinicpg.NewClinicRepository(db), engine, nil, discard)

		superuser = &accesscontrol.Actor{UserID: 1, IsSuperuser: true}
	})

	create := func(name, email, contact string) *clinic.View {
		view, err := service.CreateClinic(ctx, superuser, clinic.CreateClinicDTO{
			Name:              name,
			ContactPersonName: contact,
			Email:             email,
			City:              "Toronto",
			Country:           "Canada",
			InternalNotes:     "onboarding via referral",
		})
		Expect(err).NotTo(HaveOccurred())
		return view
	}

	Describe("CreateClinic", func() {
		It("provisions the clinic admin from the contact person", func() {
			view := create("North Clinic", "Admin@North.example", "Jane Doe")
			Expect(view.ID).To(BeNumerically(">", 0))
			Expect(view.ClinicAdminID).NotTo(BeNil())
			Expect(view.LicenseStatus).To(Equal(clinic.LicenseActive))

			var user identity.User
			Expect(db.Preload("RoleRef").First(&user, *view.ClinicAdminID).Error).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("admin@north.example"))
			Expect(user.FirstName).To(Equal("Jane"))
			Expect(user.LastName).To(Equal("Doe"))
			Expect(user.IsStaff).To(BeTrue())
			Expect(user.PasswordResetRequired).To(BeTrue())
			Expect(user.Role()).To(Equal(identity.RoleClinicAdmin))
		})

		It("rolls the clinic back when provisioning fails", func() {
			create("North Clinic", "admin@north.example", "Jane Doe")

			_, err := service.CreateClinic(ctx, superuser, clinic.CreateClinicDTO{
				Name:              "South Clinic",
				ContactPersonName: "Other Person",
				Email:             "admin@north.example",
			})
			Expect(err).To(MatchError(internal.ErrEmailAlreadyRegistered))

			var count int64
			Expect(db.Model(&clinic.Clinic{}).Count(&count).Error).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("requires a contact person for the admin account", func() {
			_, err := service.CreateClinic(ctx, superuser, clinic.CreateClinicDTO{
				Name:  "No Contact Clinic",
				Email: "x@example.com",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingContact))
		})

		It("denies clinic admins from creating clinics", func() {
			clinicID := int64(1)
			admin := &accesscontrol.Actor{UserID: 2, Role: identity.RoleClinicAdmin, ClinicID: &clinicID}
			_, err := service.CreateClinic(ctx, admin, clinic.CreateClinicDTO{
				Name:              "Rogue Clinic",
				ContactPersonName: "Someone",
				Email:             "rogue@example.com",
			})
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})
	})

	Describe("visibility", func() {
		var (
			view  *clinic.View
			admin *accesscontrol.Actor
		)

		BeforeEach(func() {
			view = create("North Clinic", "admin@north.example", "Jane Doe")
			admin = &accesscontrol.Actor{
				UserID:   *view.ClinicAdminID,
				Role:     identity.RoleClinicAdmin,
				ClinicID: &view.ID,
			}
		})

		It("redacts internal notes from clinic admins", func() {
			got, err := service.GetClinic(admin, view.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.InternalNotes).To(BeNil())
		})

		It("shows internal notes to system admins", func() {
			got, err := service.GetClinic(superuser, view.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.InternalNotes).NotTo(BeNil())
			Expect(*got.InternalNotes).To(Equal("onboarding via referral"))
		})

		It("hides other clinics from a clinic admin", func() {
			other := create("South Clinic", "admin@south.example", "John Roe")

			_, err := service.GetClinic(admin, other.ID)
			Expect(err).To(MatchError(clinic.ErrNotFound))

			views, err := service.ListClinics(admin, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(1))
			Expect(views[0].ID).To(Equal(view.ID))
		})
	})

	Describe("UpdateClinic", func() {
		var (
			view  *clinic.View
			admin *accesscontrol.Actor
		)

		BeforeEach(func() {
			view = create("North Clinic", "admin@north.example", "Jane Doe")
			admin = &accesscontrol.Actor{
				UserID:   *view.ClinicAdminID,
				Role:     identity.RoleClinicAdmin,
				ClinicID: &view.ID,
			}
		})

		It("lets the clinic admin edit contact fields", func() {
			city := "Vancouver"
			got, err := service.UpdateClinic(admin, view.ID, clinic.UpdateClinicDTO{City: &city})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.City).To(Equal("Vancouver"))
		})

		It("reserves the admin link re-assignment for system admins", func() {
			newAdmin := int64(99)
			_, err := service.UpdateClinic(admin, view.ID, clinic.UpdateClinicDTO{ClinicAdminID: &newAdmin})
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})

		It("reserves internal notes for system admins", func() {
			notes := "tampered"
			_, err := service.UpdateClinic(admin, view.ID, clinic.UpdateClinicDTO{InternalNotes: &notes})
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})

		It("validates the license status", func() {
			bad := "Suspended"
			_, err := service.UpdateClinic(superuser, view.ID, clinic.UpdateClinicDTO{LicenseStatus: &bad})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DeleteClinic", func() {
		It("removes the clinic", func() {
			view := create("North Clinic", "admin@north.example", "Jane Doe")
			Expect(service.DeleteClinic(superuser, view.ID)).To(Succeed())

			_, err := service.GetClinic(superuser, view.ID)
			Expect(err).To(MatchError(clinic.ErrNotFound))
		})

		It("denies non-admin roles", func() {
			view := create("North Clinic", "admin@north.example", "Jane Doe")
			admin := &accesscontrol.Actor{UserID: 2, Role: identity.RoleClinicAdmin, ClinicID: &view.ID}
			Expect(service.DeleteClinic(admin, view.ID)).To(MatchError(internal.ErrPermissionDenied))
		})
	})

	Describe("welcome mail dispatch", func() {
		It("survives request context teardown", func() {
			discard := slog.New(slog.NewTextHandler(io.Discard, nil))
			bus := events.NewEventBus(discard)
			mailer := &stallingMailer{
				released: make(chan struct{}),
				result:   make(chan error, 1),
			}
			notification.NewSubscriber(mailer, "http://localhost:8080", discard).Register(bus)

			engine := provisioning.NewEngine(discard, bcrypt.MinCost)
			svc := clinic.NewService(clinicpg.NewClinicRepository(db), engine, bus, discard)

			reqCtx, cancel := context.WithCancel(context.Background())
			_, err := svc.CreateClinic(reqCtx, superuser, clinic.CreateClinicDTO{
				Name:              "North Clinic",
				ContactPersonName: "Jane Doe",
				Email:             "admin@north.example",
				City:              "Toronto",
				Country:           "Canada",
			})
			Expect(err).NotTo(HaveOccurred())

			// The server cancels the request context as soon as the
			// handler returns, while the SMTP dial is still in flight.
			cancel()
			close(mailer.released)

			Eventually(mailer.result).Should(Receive(BeNil()))
		})
	})
})

// stallingMailer holds every send until released, then reports whether
// the delivery context was cancelled underneath it.
type stallingMailer struct {
	released chan struct{}
	result   chan error
}

func (m *stallingMailer) Send(ctx context.Context, to, subject, textBody string) error {
	<-m.released
	err := ctx.Err()
	m.result <- err
	return err
}
