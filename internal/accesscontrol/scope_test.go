package accesscontrol_test

import (
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/clinic"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	"github.com/Captainsparrow404/neuvii-backend/internal/therapy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Two clinics, each with one therapist, one parent, one child and a full
// goal/task/assignment tree. Every scope assertion runs against this
// fixture.
var _ = Describe("Scope", func() {
	var (
		db *gorm.DB

		clinicA, clinicB       clinic.Clinic
		therapistA, therapistB therapy.TherapistProfile
		parentA, parentB       therapy.ParentProfile
		childA, childB         therapy.Child
		goalA, goalB           therapy.Goal
		taskA, taskB           therapy.Task
		assignA, assignB       therapy.Assignment
	)

	countScoped := func(actor *accesscontrol.Actor, entity accesscontrol.Entity, model interface{}) int64 {
		var count int64
		err := db.Model(model).Scopes(accesscontrol.Scope(actor, entity)).Count(&count).Error
		Expect(err).NotTo(HaveOccurred())
		return count
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
			&clinic.Clinic{},
			&therapy.TherapistProfile{},
			&therapy.ParentProfile{},
			&therapy.Child{},
			&therapy.Goal{},
			&therapy.Task{},
			&therapy.Assignment{},
		)
		Expect(err).NotTo(HaveOccurred())

		clinicA = clinic.Clinic{Name: "North Clinic"}
		clinicB = clinic.Clinic{Name: "South Clinic"}
		Expect(db.Create(&clinicA).Error).NotTo(HaveOccurred())
		Expect(db.Create(&clinicB).Error).NotTo(HaveOccurred())

		therapistA = therapy.TherapistProfile{FirstName: "Tess", LastName: "North", Email: "tess@north.example", ClinicID: &clinicA.ID}
		therapistB = therapy.TherapistProfile{FirstName: "Theo", LastName: "South", Email: "theo@south.example", ClinicID: &clinicB.ID}
		Expect(db.Create(&therapistA).Error).NotTo(HaveOccurred())
		Expect(db.Create(&therapistB).Error).NotTo(HaveOccurred())

		parentA = therapy.ParentProfile{FirstName: "Paula", LastName: "North", Email: "paula@north.example"}
		parentB = therapy.ParentProfile{FirstName: "Pete", LastName: "South", Email: "pete@south.example"}
		Expect(db.Create(&parentA).Error).NotTo(HaveOccurred())
		Expect(db.Create(&parentB).Error).NotTo(HaveOccurred())

		childA = therapy.Child{Name: "Ava", Age: 6, Gender: therapy.GenderFemale, ClinicID: &clinicA.ID, ParentID: parentA.ID, AssignedTherapistID: &therapistA.ID}
		childB = therapy.Child{Name: "Ben", Age: 8, Gender: therapy.GenderMale, ClinicID: &clinicB.ID, ParentID: parentB.ID, AssignedTherapistID: &therapistB.ID}
		Expect(db.Create(&childA).Error).NotTo(HaveOccurred())
		Expect(db.Create(&childB).Error).NotTo(HaveOccurred())

		goalA = therapy.Goal{ChildID: childA.ID, Title: "Articulation"}
		goalB = therapy.Goal{ChildID: childB.ID, Title: "Fluency"}
		Expect(db.Create(&goalA).Error).NotTo(HaveOccurred())
		Expect(db.Create(&goalB).Error).NotTo(HaveOccurred())

		taskA = therapy.Task{GoalID: goalA.ID, Title: "Mirror practice", Difficulty: therapy.DifficultyBeginner}
		taskB = therapy.Task{GoalID: goalB.ID, Title: "Reading aloud", Difficulty: therapy.DifficultyIntermediate}
		Expect(db.Create(&taskA).Error).NotTo(HaveOccurred())
		Expect(db.Create(&taskB).Error).NotTo(HaveOccurred())

		assignA = therapy.Assignment{ChildID: childA.ID, TherapistID: therapistA.ID, TaskID: taskA.ID}
		assignB = therapy.Assignment{ChildID: childB.ID, TherapistID: therapistB.ID, TaskID: taskB.ID}
		Expect(db.Create(&assignA).Error).NotTo(HaveOccurred())
		Expect(db.Create(&assignB).Error).NotTo(HaveOccurred())
	})

	Context("system admin", func() {
		var admin *accesscontrol.Actor

		BeforeEach(func() {
			admin = &accesscontrol.Actor{UserID: 1, Role: identity.RoleSystemAdmin}
		})

		It("sees every row of every entity", func() {
			Expect(countScoped(admin, accesscontrol.EntityClinic, &clinic.Clinic{})).To(Equal(int64(2)))
			Expect(countScoped(admin, accesscontrol.EntityChild, &therapy.Child{})).To(Equal(int64(2)))
			Expect(countScoped(admin, accesscontrol.EntityTask, &therapy.Task{})).To(Equal(int64(2)))
			Expect(countScoped(admin, accesscontrol.EntityAssignment, &therapy.Assignment{})).To(Equal(int64(2)))
		})
	})

	Context("clinic admin", func() {
		var admin *accesscontrol.Actor

		BeforeEach(func() {
			admin = &accesscontrol.Actor{UserID: 2, Role: identity.RoleClinicAdmin, ClinicID: &clinicA.ID}
		})

		It("sees only the own clinic", func() {
			var clinics []clinic.Clinic
			err := db.Scopes(accesscontrol.Scope(admin, accesscontrol.EntityClinic)).Find(&clinics).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(clinics).To(HaveLen(1))
			Expect(clinics[0].ID).To(Equal(clinicA.ID))
		})

		It("sees only the clinic's children and their goal and task trees", func() {
			Expect(countScoped(admin, accesscontrol.EntityChild, &therapy.Child{})).To(Equal(int64(1)))
			Expect(countScoped(admin, accesscontrol.EntityGoal, &therapy.Goal{})).To(Equal(int64(1)))
			Expect(countScoped(admin, accesscontrol.EntityTask, &therapy.Task{})).To(Equal(int64(1)))
			Expect(countScoped(admin, accesscontrol.EntityAssignment, &therapy.Assignment{})).To(Equal(int64(1)))
		})

		It("reaches parents through their children's clinic", func() {
			var parents []therapy.ParentProfile
			err := db.Scopes(accesscontrol.Scope(admin, accesscontrol.EntityParentProfile)).Find(&parents).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(parents).To(HaveLen(1))
			Expect(parents[0].ID).To(Equal(parentA.ID))
		})

		It("resolves to an empty scope when the clinic link is missing", func() {
			unlinked := &accesscontrol.Actor{UserID: 3, Role: identity.RoleClinicAdmin}
			Expect(countScoped(unlinked, accesscontrol.EntityChild, &therapy.Child{})).To(BeZero())
		})
	})

	Context("therapist", func() {
		var therapist *accesscontrol.Actor

		BeforeEach(func() {
			therapist = &accesscontrol.Actor{UserID: 4, Role: identity.RoleTherapist, TherapistID: &therapistA.ID}
		})

		It("sees only the own caseload", func() {
			var children []therapy.Child
			err := db.Scopes(accesscontrol.Scope(therapist, accesscontrol.EntityChild)).Find(&children).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(HaveLen(1))
			Expect(children[0].ID).To(Equal(childA.ID))

			Expect(countScoped(therapist, accesscontrol.EntityGoal, &therapy.Goal{})).To(Equal(int64(1)))
			Expect(countScoped(therapist, accesscontrol.EntityTask, &therapy.Task{})).To(Equal(int64(1)))
		})

		It("sees only the own assignments", func() {
			var assignments []therapy.Assignment
			err := db.Scopes(accesscontrol.Scope(therapist, accesscontrol.EntityAssignment)).Find(&assignments).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(assignments).To(HaveLen(1))
			Expect(assignments[0].TherapistID).To(Equal(therapistA.ID))
		})

		It("has no clinic visibility", func() {
			Expect(countScoped(therapist, accesscontrol.EntityClinic, &clinic.Clinic{})).To(BeZero())
		})

		It("loses the caseload when a child is reassigned", func() {
			Expect(db.Model(&therapy.Child{}).Where("id = ?", childA.ID).
				Update("assigned_therapist_id", therapistB.ID).Error).NotTo(HaveOccurred())
			Expect(countScoped(therapist, accesscontrol.EntityChild, &therapy.Child{})).To(BeZero())
		})
	})

	Context("parent", func() {
		var parent *accesscontrol.Actor

		BeforeEach(func() {
			parent = &accesscontrol.Actor{UserID: 5, Role: identity.RoleParent, ParentID: &parentA.ID}
		})

		It("sees only the own children and their goals", func() {
			var children []therapy.Child
			err := db.Scopes(accesscontrol.Scope(parent, accesscontrol.EntityChild)).Find(&children).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(HaveLen(1))
			Expect(children[0].ParentID).To(Equal(parentA.ID))

			Expect(countScoped(parent, accesscontrol.EntityGoal, &therapy.Goal{})).To(Equal(int64(1)))
		})

		It("never sees tasks, not even the own child's", func() {
			Expect(countScoped(parent, accesscontrol.EntityTask, &therapy.Task{})).To(BeZero())
		})

		It("sees assignments for the own children only", func() {
			var assignments []therapy.Assignment
			err := db.Scopes(accesscontrol.Scope(parent, accesscontrol.EntityAssignment)).Find(&assignments).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(assignments).To(HaveLen(1))
			Expect(assignments[0].ChildID).To(Equal(childA.ID))
		})
	})

	Context("superuser", func() {
		It("is unfiltered even without a role", func() {
			super := &accesscontrol.Actor{UserID: 6, IsSuperuser: true}
			Expect(countScoped(super, accesscontrol.EntityChild, &therapy.Child{})).To(Equal(int64(2)))
			Expect(countScoped(super, accesscontrol.EntityTask, &therapy.Task{})).To(Equal(int64(2)))
		})
	})

	Context("unauthenticated", func() {
		It("resolves to an empty scope", func() {
			Expect(countScoped(nil, accesscontrol.EntityChild, &therapy.Child{})).To(BeZero())
		})
	})
})
