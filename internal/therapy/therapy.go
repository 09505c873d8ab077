// Package therapy holds the caseload entities of a clinic: therapists,
// clients, children and the goal/task/assignment hierarchy prescribed
// as therapy work.
package therapy

import (
	"time"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/clinic"
)

// Gender values accepted on a child record.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Task difficulty tiers.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

var (
	ErrTherapistNotFound  = internal.ErrTherapistNotFound
	ErrParentNotFound     = internal.ErrParentNotFound
	ErrChildNotFound      = internal.ErrChildNotFound
	ErrGoalNotFound       = internal.ErrGoalNotFound
	ErrTaskNotFound       = internal.ErrTaskNotFound
	ErrAssignmentNotFound = internal.ErrAssignmentNotFound
)

// TherapistProfile is a clinician. The linked user is provisioned when
// the profile is created and removed together with the profile.
type TherapistProfile struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Email       string         `gorm:"uniqueIndex" json:"email"`
	PhoneNumber string         `json:"phone_number"`
	IsActive    bool           `json:"is_active"`
	ClinicID    *int64         `gorm:"index" json:"clinic_id,omitempty"`
	Clinic      *clinic.Clinic `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	UserID      *int64         `gorm:"uniqueIndex" json:"user_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (TherapistProfile) TableName() string { return "therapist_profiles" }

func (t *TherapistProfile) FullName() string {
	return t.FirstName + " " + t.LastName
}

func (t *TherapistProfile) Ownership() accesscontrol.Ownership {
	id := t.ID
	return accesscontrol.Ownership{ClinicID: t.ClinicID, TherapistID: &id}
}

// ParentProfile is a client of the clinic, the guardian owning one or
// more children.
type ParentProfile struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `gorm:"uniqueIndex" json:"email"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
	UserID      *int64    `gorm:"uniqueIndex" json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ParentProfile) TableName() string { return "parent_profiles" }

func (p *ParentProfile) FullName() string {
	return p.FirstName + " " + p.LastName
}

func (p *ParentProfile) Ownership() accesscontrol.Ownership {
	id := p.ID
	return accesscontrol.Ownership{ParentID: &id}
}

// Child belongs to one parent and one clinic. The clinic reference is
// nullable in storage so a deleted clinic leaves the child intact, but
// it is required when the child is registered.
type Child struct {
	ID                  int64             `gorm:"primaryKey" json:"id"`
	Name                string            `json:"name"`
	Age                 int               `json:"age"`
	Gender              string            `json:"gender"`
	ClinicID            *int64            `gorm:"index" json:"clinic_id"`
	Clinic              *clinic.Clinic    `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ParentID            int64             `gorm:"not null;index" json:"parent_id"`
	Parent              *ParentProfile    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AssignedTherapistID *int64            `gorm:"index" json:"assigned_therapist_id,omitempty"`
	AssignedTherapist   *TherapistProfile `gorm:"foreignKey:AssignedTherapistID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt           time.Time         `json:"created_at"`
}

func (Child) TableName() string { return "children" }

func (c *Child) Ownership() accesscontrol.Ownership {
	parentID := c.ParentID
	return accesscontrol.Ownership{
		ClinicID:    c.ClinicID,
		TherapistID: c.AssignedTherapistID,
		ParentID:    &parentID,
	}
}

// Goal is a therapy objective for one child.
type Goal struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	ChildID    int64  `gorm:"not null;index" json:"child_id"`
	Child      *Child `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title      string `json:"title"`
	IsLongTerm bool   `json:"is_long_term"`
}

func (Goal) TableName() string { return "goals" }

// Task is a unit of work under a goal.
type Task struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	GoalID     int64  `gorm:"not null;index" json:"goal_id"`
	Goal       *Goal  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
}

func (Task) TableName() string { return "tasks" }

// Assignment prescribes one task to one child by one therapist.
type Assignment struct {
	ID           int64             `gorm:"primaryKey" json:"id"`
	ChildID      int64             `gorm:"not null;index" json:"child_id"`
	Child        *Child            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TherapistID  int64             `gorm:"not null;index" json:"therapist_id"`
	Therapist    *TherapistProfile `gorm:"foreignKey:TherapistID;constraint:OnDelete:CASCADE" json:"-"`
	TaskID       int64             `gorm:"not null;index" json:"task_id"`
	Task         *Task             `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AssignedDate time.Time         `gorm:"autoCreateTime" json:"assigned_date"`
	DueDate      *time.Time        `json:"due_date,omitempty"`
	Completed    bool              `json:"completed"`
}

func (Assignment) TableName() string { return "assignments" }
