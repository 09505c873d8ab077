package therapy

import (
	"time"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/core/common/validation"
)

func validGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func validDifficulty(d string) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// CreateTherapistDTO requires an email because the therapist's login
// account is provisioned from it.
type CreateTherapistDTO struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	ClinicID    *int64 `json:"clinic_id"`
	IsActive    *bool  `json:"is_active"`
}

func (d CreateTherapistDTO) Validate() error {
	if d.FirstName == "" {
		return internal.NewValidationFieldError("first_name", "first name is required", internal.ErrCodeValidationFailed)
	}
	if d.Email == "" {
		return internal.NewValidationFieldError("email", "email is required to create therapist account", internal.ErrCodeMissingContact)
	}
	v := validation.NewValidator()
	v.Field("email", d.Email).Email()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateTherapistDTO struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	ClinicID    *int64  `json:"clinic_id"`
	IsActive    *bool   `json:"is_active"`
}

// CreateParentDTO requires an email because the parent's login account
// is provisioned from it.
type CreateParentDTO struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	IsActive    *bool  `json:"is_active"`
}

func (d CreateParentDTO) Validate() error {
	if d.FirstName == "" {
		return internal.NewValidationFieldError("first_name", "first name is required", internal.ErrCodeValidationFailed)
	}
	if d.Email == "" {
		return internal.NewValidationFieldError("email", "email is required to create parent account", internal.ErrCodeMissingContact)
	}
	v := validation.NewValidator()
	v.Field("email", d.Email).Email()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateParentDTO struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	IsActive    *bool   `json:"is_active"`
}

type CreateChildDTO struct {
	Name                string `json:"name"`
	Age                 int    `json:"age"`
	Gender              string `json:"gender"`
	ClinicID            *int64 `json:"clinic_id"`
	ParentID            int64  `json:"parent_id"`
	AssignedTherapistID *int64 `json:"assigned_therapist_id"`
}

func (d CreateChildDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(120)
	v.Field("age", d.Age).Required().MinInt(1, internal.ErrCodeValidationFailed)
	v.Field("gender", d.Gender).Required().
		OneOf("gender must be male, female or other", GenderMale, GenderFemale, GenderOther)
	v.Field("clinic_id", d.ClinicID).Required()
	v.Field("parent_id", d.ParentID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateChildDTO struct {
	Name                *string `json:"name"`
	Age                 *int    `json:"age"`
	Gender              *string `json:"gender"`
	AssignedTherapistID *int64  `json:"assigned_therapist_id"`
	ClearTherapist      bool    `json:"clear_therapist"`
}

func (d UpdateChildDTO) Validate() error {
	if d.Name != nil && *d.Name == "" {
		return internal.NewValidationFieldError("name", "child name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if d.Age != nil && *d.Age <= 0 {
		return internal.NewValidationFieldError("age", "age must be positive", internal.ErrCodeValidationFailed)
	}
	if d.Gender != nil && !validGender(*d.Gender) {
		return internal.NewValidationFieldError("gender", "gender must be male, female or other", internal.ErrCodeValidationFailed)
	}
	return nil
}

type CreateGoalDTO struct {
	ChildID    int64  `json:"child_id"`
	Title      string `json:"title"`
	IsLongTerm bool   `json:"is_long_term"`
}

func (d CreateGoalDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("child_id", d.ChildID).Required()
	v.Field("title", d.Title).Required().MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateGoalDTO struct {
	Title      *string `json:"title"`
	IsLongTerm *bool   `json:"is_long_term"`
}

type CreateTaskDTO struct {
	GoalID     int64  `json:"goal_id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
}

func (d CreateTaskDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("goal_id", d.GoalID).Required()
	v.Field("title", d.Title).Required().MaxLength(200)
	v.Field("difficulty", d.Difficulty).Required().
		OneOf("difficulty must be beginner, intermediate or advanced",
			DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateTaskDTO struct {
	Title      *string `json:"title"`
	Difficulty *string `json:"difficulty"`
}

func (d UpdateTaskDTO) Validate() error {
	if d.Title != nil && *d.Title == "" {
		return internal.NewValidationFieldError("title", "task title cannot be empty", internal.ErrCodeValidationFailed)
	}
	if d.Difficulty != nil && !validDifficulty(*d.Difficulty) {
		return internal.NewValidationFieldError("difficulty", "difficulty must be beginner, intermediate or advanced", internal.ErrCodeValidationFailed)
	}
	return nil
}

// CreateAssignmentDTO prescribes a task to a child. TherapistID may be
// omitted by therapist callers, who always assign as themselves.
type CreateAssignmentDTO struct {
	ChildID     int64      `json:"child_id"`
	TaskID      int64      `json:"task_id"`
	TherapistID *int64     `json:"therapist_id"`
	DueDate     *time.Time `json:"due_date"`
}

func (d CreateAssignmentDTO) Validate() error {
	if d.ChildID == 0 {
		return internal.NewValidationFieldError("child_id", "child is required", internal.ErrCodeValidationFailed)
	}
	if d.TaskID == 0 {
		return internal.NewValidationFieldError("task_id", "task is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateAssignmentDTO covers both therapist edits and the parent's
// completion toggle; the service rejects anything beyond Completed for
// parents.
type UpdateAssignmentDTO struct {
	DueDate   *time.Time `json:"due_date"`
	Completed *bool      `json:"completed"`
}
