package provisioning_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/auth"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	identitypg "github.com/Captainsparrow404/neuvii-backend/internal/identity/postgres"
	"github.com/Captainsparrow404/neuvii-backend/internal/provisioning"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestProvisioning(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Provisioning Suite")
}

var _ = Describe("Engine.Provision", func() {
	var (
		db     *gorm.DB
		engine *provisioning.Engine
	)

	seedPermissions := func(codenames ...string) {
		for _, c := range codenames {
			Expect(db.Create(&identity.Permission{Codename: c}).Error).NotTo(HaveOccurred())
		}
	}

	BeforeEach(func() {
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
		)
		Expect(err).NotTo(HaveOccurred())

		discard := slog.New(slog.NewTextHandler(io.Discard, nil))
		engine = provisioning.NewEngine(discard, bcrypt.MinCost)
	})

	It("provisions a clinic admin from the contact person", func() {
		seedPermissions(
			"add_therapistprofile", "change_therapistprofile", "view_therapistprofile",
			"add_parentprofile", "change_parentprofile", "view_parentprofile",
			"add_child", "change_child", "view_child",
			"view_clinic",
		)

		result, err := engine.Provision(db, provisioning.Subject{
			Role:     identity.RoleClinicAdmin,
			Email:    "Jane.Doe@Example.com",
			FullName: "Jane Doe",
			Active:   true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result).NotTo(BeNil())
		Expect(result.Email).To(Equal("jane.doe@example.com"))
		Expect(result.FirstName).To(Equal("Jane"))
		Expect(result.Role).To(Equal(identity.RoleClinicAdmin))
		Expect(result.TempPassword).To(HaveLen(12))

		repo := identitypg.NewRepository(db)
		user, err := repo.GetByEmail("jane.doe@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(user.FirstName).To(Equal("Jane"))
		Expect(user.LastName).To(Equal("Doe"))
		Expect(user.IsActive).To(BeTrue())
		Expect(user.IsStaff).To(BeTrue())
		Expect(user.IsSuperuser).To(BeFalse())
		Expect(user.PasswordResetRequired).To(BeTrue())
		Expect(user.Role()).To(Equal(identity.RoleClinicAdmin))

		Expect(user.Permissions).To(ConsistOf(
			"add_therapistprofile", "change_therapistprofile", "view_therapistprofile",
			"add_parentprofile", "change_parentprofile", "view_parentprofile",
			"add_child", "change_child", "view_child",
			"view_clinic",
		))

		var group identity.Group
		Expect(db.Where("name = ?", "clinic_admin").First(&group).Error).NotTo(HaveOccurred())
		var membership identity.UserGroup
		Expect(db.Where("user_id = ? AND group_id = ?", user.ID, group.ID).
			First(&membership).Error).NotTo(HaveOccurred())
	})

	It("stores the temp credential as a verifiable bcrypt hash", func() {
		result, err := engine.Provision(db, provisioning.Subject{
			Role:     identity.RoleParent,
			Email:    "parent@example.com",
			FullName: "Sam Lee",
			Active:   true,
		})
		Expect(err).NotTo(HaveOccurred())

		var user identity.User
		Expect(db.Where("id = ?", result.UserID).First(&user).Error).NotTo(HaveOccurred())
		Expect(user.PasswordHash).NotTo(Equal(result.TempPassword))
		Expect(auth.VerifyPassword(user.PasswordHash, result.TempPassword)).To(Succeed())
	})

	It("grants parents no direct permissions, only group membership", func() {
		result, err := engine.Provision(db, provisioning.Subject{
			Role:     identity.RoleParent,
			Email:    "parent@example.com",
			FullName: "Sam Lee",
			Active:   true,
		})
		Expect(err).NotTo(HaveOccurred())

		var count int64
		Expect(db.Model(&identity.UserPermission{}).Where("user_id = ?", result.UserID).
			Count(&count).Error).NotTo(HaveOccurred())
		Expect(count).To(BeZero())

		var group identity.Group
		Expect(db.Where("name = ?", "parent").First(&group).Error).NotTo(HaveOccurred())
	})

	It("skips codenames missing from the catalog without failing", func() {
		seedPermissions("view_child")

		result, err := engine.Provision(db, provisioning.Subject{
			Role:     identity.RoleTherapist,
			Email:    "t@example.com",
			FullName: "Tess North",
			Active:   true,
		})
		Expect(err).NotTo(HaveOccurred())

		repo := identitypg.NewRepository(db)
		perms, err := repo.GetPermissions(result.UserID)
		Expect(err).NotTo(HaveOccurred())
		Expect(perms).To(ConsistOf("view_child"))
	})

	It("is a no-op for an entity that already has its user", func() {
		result, err := engine.Provision(db, provisioning.Subject{
			Role:          identity.RoleTherapist,
			Email:         "t@example.com",
			AlreadyLinked: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(BeNil())

		var count int64
		Expect(db.Model(&identity.User{}).Count(&count).Error).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
	})

	It("rejects a duplicate email and creates no second user", func() {
		_, err := engine.Provision(db, provisioning.Subject{
			Role:     identity.RoleParent,
			Email:    "dup@example.com",
			FullName: "First One",
			Active:   true,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = engine.Provision(db, provisioning.Subject{
			Role:     identity.RoleTherapist,
			Email:    "DUP@example.com",
			FullName: "Second One",
			Active:   true,
		})
		Expect(err).To(MatchError(internal.ErrEmailAlreadyRegistered))

		var count int64
		Expect(db.Model(&identity.User{}).Count(&count).Error).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(1)))
	})

	It("requires an email", func() {
		_, err := engine.Provision(db, provisioning.Subject{
			Role:     identity.RoleParent,
			FullName: "No Mail",
		})
		Expect(err).To(HaveOccurred())
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeMissingContact))
	})

	It("rejects an unknown role", func() {
		_, err := engine.Provision(db, provisioning.Subject{
			Role:  identity.Role("Janitor"),
			Email: "j@example.com",
		})
		Expect(err).To(HaveOccurred())
	})

	It("runs the back-link inside the same transaction", func() {
		var linked int64
		result, err := engine.Provision(db, provisioning.Subject{
			Role:     identity.RoleTherapist,
			Email:    "t@example.com",
			FullName: "Tess North",
			Active:   true,
			BackLink: func(tx *gorm.DB, userID int64) error {
				linked = userID
				return nil
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(linked).To(Equal(result.UserID))
	})

	It("splits a single-word name into first name only", func() {
		result, err := engine.Provision(db, provisioning.Subject{
			Role:     identity.RoleParent,
			Email:    "cher@example.com",
			FullName: "Cher",
			Active:   true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.FirstName).To(Equal("Cher"))

		var user identity.User
		Expect(db.Where("id = ?", result.UserID).First(&user).Error).NotTo(HaveOccurred())
		Expect(user.LastName).To(BeEmpty())
	})
})
