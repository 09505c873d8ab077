package therapy_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/clinic"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	"github.com/Captainsparrow404/neuvii-backend/internal/provisioning"
	"github.com/Captainsparrow404/neuvii-backend/internal/therapy"
	therapypg "github.com/Captainsparrow404/neuvii-backend/internal/therapy/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestTherapy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Therapy Suite")
}

var _ = Describe("Service", func() {
	var (
		db      *gorm.DB
		service *therapy.Service
		ctx     context.Context

		clinicA, clinicB clinic.Clinic

		superuser  *accesscontrol.Actor
		adminA     *accesscontrol.Actor
		therapistA *accesscontrol.Actor
		parentA    *accesscontrol.Actor
	)

	count := func(model interface{}) int64 {
		var n int64
		Expect(db.Model(model).Count(&n).Error).NotTo(HaveOccurred())
		return n
	}

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
		Expect(db.Exec("PRAGMA foreign_keys = ON").Error).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&identity.RoleRecord{},
			&identity.Group{},
			&identity.Permission{},
			&identity.User{},
			&identity.UserGroup{},
			&identity.UserPermission{},
			&clinic.Clinic{},
			&therapy.TherapistProfile{},
			&therapy.ParentProfile{},
			&therapy.Child{},
			&therapy.Goal{},
			&therapy.Task{},
			&therapy.Assignment{},
		)
		Expect(err).NotTo(HaveOccurred())

		discard := slog.New(slog.NewTextHandler(io.Discard, nil))
		engine := provisioning.NewEngine(discard, bcrypt.MinCost)
		service = therapy.NewService(therapypg.NewTherapyRepository(db), engine, nil, discard)

		clinicA = clinic.Clinic{Name: "North Clinic"}
		clinicB = clinic.Clinic{Name: "South Clinic"}
		Expect(db.Create(&clinicA).Error).NotTo(HaveOccurred())
		Expect(db.Create(&clinicB).Error).NotTo(HaveOccurred())

		superuser = &accesscontrol.Actor{UserID: 1, IsSuperuser: true}
		adminA = &accesscontrol.Actor{UserID: 2, Role: identity.RoleClinicAdmin, ClinicID: &clinicA.ID}
		therapistA = &accesscontrol.Actor{UserID: 3, Role: identity.RoleTherapist}
		parentA = &accesscontrol.Actor{UserID: 4, Role: identity.RoleParent}
	})

	// creates a therapist profile in the given clinic through the service
	createTherapist := func(email string, clinicID *int64) *therapy.TherapistProfile {
		t, err := service.CreateTherapist(ctx, superuser, therapy.CreateTherapistDTO{
			FirstName: "Tess",
			LastName:  "North",
			Email:     email,
			ClinicID:  clinicID,
		})
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	createParent := func(email string) *therapy.ParentProfile {
		p, err := service.CreateParent(ctx, superuser, therapy.CreateParentDTO{
			FirstName: "Paula",
			LastName:  "North",
			Email:     email,
		})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	Describe("CreateTherapist", func() {
		It("provisions and links a login account", func() {
			t := createTherapist("tess@north.example", &clinicA.ID)
			Expect(t.ID).To(BeNumerically(">", 0))
			Expect(t.UserID).NotTo(BeNil())

			var user identity.User
			Expect(db.Preload("RoleRef").First(&user, *t.UserID).Error).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("tess@north.example"))
			Expect(user.PasswordResetRequired).To(BeTrue())
			Expect(user.Role()).To(Equal(identity.RoleTherapist))
		})

		It("forces clinic admins into their own clinic", func() {
			t, err := service.CreateTherapist(ctx, adminA, therapy.CreateTherapistDTO{
				FirstName: "Theo",
				Email:     "theo@north.example",
				ClinicID:  &clinicB.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(t.ClinicID).NotTo(BeNil())
			Expect(*t.ClinicID).To(Equal(clinicA.ID))
		})

		It("rolls the profile back when provisioning fails", func() {
			createParent("taken@example.com")

			_, err := service.CreateTherapist(ctx, superuser, therapy.CreateTherapistDTO{
				FirstName: "Tess",
				Email:     "taken@example.com",
				ClinicID:  &clinicA.ID,
			})
			Expect(err).To(MatchError(internal.ErrEmailAlreadyRegistered))
			Expect(count(&therapy.TherapistProfile{})).To(BeZero())
		})

		It("denies roles without the add capability", func() {
			_, err := service.CreateTherapist(ctx, parentA, therapy.CreateTherapistDTO{
				FirstName: "Nope",
				Email:     "nope@example.com",
			})
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})
	})

	Describe("CreateChild", func() {
		It("rejects a therapist from a different clinic", func() {
			t := createTherapist("theo@south.example", &clinicB.ID)
			p := createParent("paula@north.example")

			_, err := service.CreateChild(superuser, therapy.CreateChildDTO{
				Name:                "Ava",
				Age:                 6,
				Gender:              therapy.GenderFemale,
				ClinicID:            &clinicA.ID,
				ParentID:            p.ID,
				AssignedTherapistID: &t.ID,
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeClinicMismatch))
		})

		It("accepts a freshly created parent with no children yet", func() {
			p := createParent("paula@north.example")

			c, err := service.CreateChild(adminA, therapy.CreateChildDTO{
				Name:     "Ava",
				Age:      6,
				Gender:   therapy.GenderFemale,
				ParentID: p.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ClinicID).NotTo(BeNil())
			Expect(*c.ClinicID).To(Equal(clinicA.ID))
		})

		It("rejects an unknown parent", func() {
			_, err := service.CreateChild(superuser, therapy.CreateChildDTO{
				Name:     "Ava",
				Age:      6,
				Gender:   therapy.GenderFemale,
				ClinicID: &clinicA.ID,
				ParentID: 9999,
			})
			Expect(err).To(MatchError(therapy.ErrParentNotFound))
		})
	})

	Describe("assignments", func() {
		var (
			tA    *therapy.TherapistProfile
			tB    *therapy.TherapistProfile
			child *therapy.Child
			task  *therapy.Task
		)

		BeforeEach(func() {
			tA = createTherapist("tess@north.example", &clinicA.ID)
			tB = createTherapist("theo@south.example", &clinicB.ID)
			p := createParent("paula@north.example")

			var err error
			child, err = service.CreateChild(superuser, therapy.CreateChildDTO{
				Name:                "Ava",
				Age:                 6,
				Gender:              therapy.GenderFemale,
				ClinicID:            &clinicA.ID,
				ParentID:            p.ID,
				AssignedTherapistID: &tA.ID,
			})
			Expect(err).NotTo(HaveOccurred())

			goal, err := service.CreateGoal(superuser, therapy.CreateGoalDTO{
				ChildID: child.ID,
				Title:   "Articulation",
			})
			Expect(err).NotTo(HaveOccurred())

			task, err = service.CreateTask(superuser, therapy.CreateTaskDTO{
				GoalID:     goal.ID,
				Title:      "Mirror practice",
				Difficulty: therapy.DifficultyBeginner,
			})
			Expect(err).NotTo(HaveOccurred())

			therapistA.TherapistID = &tA.ID
			parentA.ParentID = &p.ID
		})

		It("rejects difficulty tiers outside the catalog", func() {
			_, err := service.CreateTask(superuser, therapy.CreateTaskDTO{
				GoalID:     task.GoalID,
				Title:      "Breathing drill",
				Difficulty: "medium",
			})
			Expect(err).To(HaveOccurred())
		})

		It("always records therapist callers as the assigning therapist", func() {
			a, err := service.CreateAssignment(therapistA, therapy.CreateAssignmentDTO{
				ChildID:     child.ID,
				TaskID:      task.ID,
				TherapistID: &tB.ID, // ignored for therapist callers
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.TherapistID).To(Equal(tA.ID))
		})

		It("requires an explicit therapist from admin callers", func() {
			_, err := service.CreateAssignment(superuser, therapy.CreateAssignmentDTO{
				ChildID: child.ID,
				TaskID:  task.ID,
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a cross-clinic assignment", func() {
			_, err := service.CreateAssignment(superuser, therapy.CreateAssignmentDTO{
				ChildID:     child.ID,
				TaskID:      task.ID,
				TherapistID: &tB.ID,
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeClinicMismatch))
		})

		Context("parent updates", func() {
			var assignment *therapy.Assignment

			BeforeEach(func() {
				var err error
				assignment, err = service.CreateAssignment(superuser, therapy.CreateAssignmentDTO{
					ChildID:     child.ID,
					TaskID:      task.ID,
					TherapistID: &tA.ID,
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("lets a parent toggle completion on the own child's assignment", func() {
				done := true
				updated, err := service.UpdateAssignment(parentA, assignment.ID, therapy.UpdateAssignmentDTO{
					Completed: &done,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Completed).To(BeTrue())
			})

			It("refuses due date edits from parents", func() {
				due := time.Now().Add(48 * time.Hour)
				_, err := service.UpdateAssignment(parentA, assignment.ID, therapy.UpdateAssignmentDTO{
					DueDate: &due,
				})
				Expect(err).To(MatchError(internal.ErrPermissionDenied))
			})

			It("lets therapists move the due date", func() {
				due := time.Now().Add(48 * time.Hour)
				updated, err := service.UpdateAssignment(therapistA, assignment.ID, therapy.UpdateAssignmentDTO{
					DueDate: &due,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.DueDate).NotTo(BeNil())
			})

			It("hides another family's assignment from a parent", func() {
				other := createParent("pete@south.example")
				stranger := &accesscontrol.Actor{UserID: 9, Role: identity.RoleParent, ParentID: &other.ID}

				done := true
				_, err := service.UpdateAssignment(stranger, assignment.ID, therapy.UpdateAssignmentDTO{
					Completed: &done,
				})
				Expect(err).To(MatchError(therapy.ErrAssignmentNotFound))
			})
		})
	})

	Describe("deletes", func() {
		var (
			tA    *therapy.TherapistProfile
			par   *therapy.ParentProfile
			child *therapy.Child
		)

		BeforeEach(func() {
			tA = createTherapist("tess@north.example", &clinicA.ID)
			par = createParent("paula@north.example")

			var err error
			child, err = service.CreateChild(superuser, therapy.CreateChildDTO{
				Name:                "Ava",
				Age:                 6,
				Gender:              therapy.GenderFemale,
				ClinicID:            &clinicA.ID,
				ParentID:            par.ID,
				AssignedTherapistID: &tA.ID,
			})
			Expect(err).NotTo(HaveOccurred())

			goal, err := service.CreateGoal(superuser, therapy.CreateGoalDTO{ChildID: child.ID, Title: "Articulation"})
			Expect(err).NotTo(HaveOccurred())
			task, err := service.CreateTask(superuser, therapy.CreateTaskDTO{GoalID: goal.ID, Title: "Mirror practice", Difficulty: therapy.DifficultyBeginner})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateAssignment(superuser, therapy.CreateAssignmentDTO{ChildID: child.ID, TaskID: task.ID, TherapistID: &tA.ID})
			Expect(err).NotTo(HaveOccurred())
		})

		It("removes the parent's whole tree and login account", func() {
			Expect(service.DeleteParent(superuser, par.ID)).To(Succeed())

			Expect(count(&therapy.ParentProfile{})).To(BeZero())
			Expect(count(&therapy.Child{})).To(BeZero())
			Expect(count(&therapy.Goal{})).To(BeZero())
			Expect(count(&therapy.Task{})).To(BeZero())
			Expect(count(&therapy.Assignment{})).To(BeZero())

			var users int64
			Expect(db.Model(&identity.User{}).Where("id = ?", *par.UserID).
				Count(&users).Error).NotTo(HaveOccurred())
			Expect(users).To(BeZero())
		})

		It("keeps children when their therapist is removed", func() {
			Expect(service.DeleteTherapist(superuser, tA.ID)).To(Succeed())

			var c therapy.Child
			Expect(db.First(&c, child.ID).Error).NotTo(HaveOccurred())
			Expect(c.AssignedTherapistID).To(BeNil())

			var users int64
			Expect(db.Model(&identity.User{}).Where("id = ?", *tA.UserID).
				Count(&users).Error).NotTo(HaveOccurred())
			Expect(users).To(BeZero())
		})

		It("removes goals, tasks and assignments with their child", func() {
			Expect(service.DeleteChild(superuser, child.ID)).To(Succeed())

			Expect(count(&therapy.Goal{})).To(BeZero())
			Expect(count(&therapy.Task{})).To(BeZero())
			Expect(count(&therapy.Assignment{})).To(BeZero())
			Expect(count(&therapy.ParentProfile{})).To(Equal(int64(1)))
		})
	})

	Describe("UpdateTherapist", func() {
		It("reserves clinic moves for system admins", func() {
			t := createTherapist("tess@north.example", &clinicA.ID)

			_, err := service.UpdateTherapist(adminA, t.ID, therapy.UpdateTherapistDTO{
				ClinicID: &clinicB.ID,
			})
			Expect(err).To(MatchError(internal.ErrPermissionDenied))

			moved, err := service.UpdateTherapist(superuser, t.ID, therapy.UpdateTherapistDTO{
				ClinicID: &clinicB.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(*moved.ClinicID).To(Equal(clinicB.ID))
		})
	})
})
