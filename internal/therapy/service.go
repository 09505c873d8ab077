package therapy

import (
	"context"
	"log/slog"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/core/events"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	identitypg "github.com/Captainsparrow404/neuvii-backend/internal/identity/postgres"
	"github.com/Captainsparrow404/neuvii-backend/internal/provisioning"
	"gorm.io/gorm"
)

// Repository interface defines the data access methods for the caseload
// entities. Reads are scoped to the actor; deletes that cascade to a
// linked user run on an explicit transaction.
type Repository interface {
	Transaction(fn func(tx *gorm.DB) error) error

	CreateTherapist(tx *gorm.DB, t *TherapistProfile) error
	GetTherapist(actor *accesscontrol.Actor, id int64) (*TherapistProfile, error)
	ListTherapists(actor *accesscontrol.Actor, limit, offset int) ([]*TherapistProfile, error)
	UpdateTherapist(t *TherapistProfile) error
	DeleteTherapist(tx *gorm.DB, id int64) error

	CreateParent(tx *gorm.DB, p *ParentProfile) error
	GetParent(actor *accesscontrol.Actor, id int64) (*ParentProfile, error)
	GetParentByID(id int64) (*ParentProfile, error)
	ListParents(actor *accesscontrol.Actor, limit, offset int) ([]*ParentProfile, error)
	UpdateParent(p *ParentProfile) error
	DeleteParent(tx *gorm.DB, id int64) error

	CreateChild(c *Child) error
	GetChild(actor *accesscontrol.Actor, id int64) (*Child, error)
	ListChildren(actor *accesscontrol.Actor, limit, offset int) ([]*Child, error)
	UpdateChild(c *Child) error
	DeleteChild(id int64) error

	CreateGoal(g *Goal) error
	GetGoal(actor *accesscontrol.Actor, id int64) (*Goal, error)
	ListGoals(actor *accesscontrol.Actor, childID int64, limit, offset int) ([]*Goal, error)
	UpdateGoal(g *Goal) error
	DeleteGoal(id int64) error

	CreateTask(t *Task) error
	GetTask(actor *accesscontrol.Actor, id int64) (*Task, error)
	ListTasks(actor *accesscontrol.Actor, goalID int64, limit, offset int) ([]*Task, error)
	UpdateTask(t *Task) error
	DeleteTask(id int64) error

	CreateAssignment(a *Assignment) error
	GetAssignment(actor *accesscontrol.Actor, id int64) (*Assignment, error)
	ListAssignments(actor *accesscontrol.Actor, childID int64, limit, offset int) ([]*Assignment, error)
	UpdateAssignment(a *Assignment) error
	DeleteAssignment(id int64) error
}

// Service handles the therapy caseload business logic
type Service struct {
	repo     Repository
	engine   *provisioning.Engine
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, engine *provisioning.Engine, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		eventBus: eventBus,
		logger:   logger,
	}
}

func sees(actor *accesscontrol.Actor) bool {
	return actor != nil && (actor.IsSuperuser || actor.Role == identity.RoleSystemAdmin)
}

// Therapists

// CreateTherapist creates the profile and provisions its login account
// in one transaction. Clinic admins always create into their own clinic.
func (s *Service) CreateTherapist(ctx context.Context, actor *accesscontrol.Actor, dto CreateTherapistDTO) (*TherapistProfile, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionAdd, accesscontrol.EntityTherapistProfile) {
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	clinicID := dto.ClinicID
	if !sees(actor) {
		if actor.ClinicID == nil {
			return nil, internal.ErrPermissionDenied
		}
		clinicID = actor.ClinicID
	}

	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}

	t := &TherapistProfile{
		FirstName:   dto.FirstName,
		LastName:    dto.LastName,
		Email:       identity.NormalizeEmail(dto.Email),
		PhoneNumber: dto.PhoneNumber,
		IsActive:    active,
		ClinicID:    clinicID,
	}

	var provisioned *provisioning.Result
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreateTherapist(tx, t); err != nil {
			return err
		}
		result, err := s.engine.Provision(tx, provisioning.Subject{
			Role:     identity.RoleTherapist,
			Email:    t.Email,
			FullName: t.FullName(),
			Active:   t.IsActive,
			BackLink: func(tx *gorm.DB, userID int64) error {
				t.UserID = &userID
				return tx.Model(&TherapistProfile{}).Where("id = ?", t.ID).
					Update("user_id", userID).Error
			},
		})
		if err != nil {
			return err
		}
		provisioned = result
		return nil
	})
	if err != nil {
		s.logger.Error("therapist creation failed", "error", err, "email", dto.Email)
		return nil, err
	}

	s.publishProvisioned(ctx, provisioned)
	return t, nil
}

func (s *Service) GetTherapist(actor *accesscontrol.Actor, id int64) (*TherapistProfile, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityTherapistProfile) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.GetTherapist(actor, id)
}

func (s *Service) ListTherapists(actor *accesscontrol.Actor, limit, offset int) ([]*TherapistProfile, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityTherapistProfile) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.ListTherapists(actor, normalizeLimit(limit), offset)
}

func (s *Service) UpdateTherapist(actor *accesscontrol.Actor, id int64, dto UpdateTherapistDTO) (*TherapistProfile, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionChange, accesscontrol.EntityTherapistProfile) {
		return nil, internal.ErrPermissionDenied
	}

	t, err := s.repo.GetTherapist(actor, id)
	if err != nil {
		return nil, err
	}

	if dto.FirstName != nil {
		t.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		t.LastName = *dto.LastName
	}
	if dto.PhoneNumber != nil {
		t.PhoneNumber = *dto.PhoneNumber
	}
	if dto.IsActive != nil {
		t.IsActive = *dto.IsActive
	}
	if dto.ClinicID != nil {
		// moving a therapist between clinics is a system-admin action
		if !sees(actor) {
			return nil, internal.ErrPermissionDenied
		}
		t.ClinicID = dto.ClinicID
	}

	if err := s.repo.UpdateTherapist(t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTherapist removes the profile and its login account together.
// Children stay and lose their therapist link.
func (s *Service) DeleteTherapist(actor *accesscontrol.Actor, id int64) error {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionDelete, accesscontrol.EntityTherapistProfile) {
		return internal.ErrPermissionDenied
	}
	t, err := s.repo.GetTherapist(actor, id)
	if err != nil {
		return err
	}

	return s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteTherapist(tx, t.ID); err != nil {
			return err
		}
		if t.UserID != nil {
			if err := identitypg.NewRepository(tx).Delete(*t.UserID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Parents

func (s *Service) CreateParent(ctx context.Context, actor *accesscontrol.Actor, dto CreateParentDTO) (*ParentProfile, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionAdd, accesscontrol.EntityParentProfile) {
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}

	p := &ParentProfile{
		FirstName:   dto.FirstName,
		LastName:    dto.LastName,
		Email:       identity.NormalizeEmail(dto.Email),
		PhoneNumber: dto.PhoneNumber,
		IsActive:    active,
	}

	var provisioned *provisioning.Result
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreateParent(tx, p); err != nil {
			return err
		}
		result, err := s.engine.Provision(tx, provisioning.Subject{
			Role:     identity.RoleParent,
			Email:    p.Email,
			FullName: p.FullName(),
			Active:   p.IsActive,
			BackLink: func(tx *gorm.DB, userID int64) error {
				p.UserID = &userID
				return tx.Model(&ParentProfile{}).Where("id = ?", p.ID).
					Update("user_id", userID).Error
			},
		})
		if err != nil {
			return err
		}
		provisioned = result
		return nil
	})
	if err != nil {
		s.logger.Error("parent creation failed", "error", err, "email", dto.Email)
		return nil, err
	}

	s.publishProvisioned(ctx, provisioned)
	return p, nil
}

func (s *Service) GetParent(actor *accesscontrol.Actor, id int64) (*ParentProfile, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityParentProfile) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.GetParent(actor, id)
}

func (s *Service) ListParents(actor *accesscontrol.Actor, limit, offset int) ([]*ParentProfile, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityParentProfile) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.ListParents(actor, normalizeLimit(limit), offset)
}

func (s *Service) UpdateParent(actor *accesscontrol.Actor, id int64, dto UpdateParentDTO) (*ParentProfile, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionChange, accesscontrol.EntityParentProfile) {
		return nil, internal.ErrPermissionDenied
	}

	p, err := s.repo.GetParent(actor, id)
	if err != nil {
		return nil, err
	}

	if dto.FirstName != nil {
		p.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		p.LastName = *dto.LastName
	}
	if dto.PhoneNumber != nil {
		p.PhoneNumber = *dto.PhoneNumber
	}
	if dto.IsActive != nil {
		p.IsActive = *dto.IsActive
	}

	if err := s.repo.UpdateParent(p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteParent removes the profile, its children with their whole
// goal/task/assignment trees, and the login account, atomically.
func (s *Service) DeleteParent(actor *accesscontrol.Actor, id int64) error {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionDelete, accesscontrol.EntityParentProfile) {
		return internal.ErrPermissionDenied
	}
	p, err := s.repo.GetParent(actor, id)
	if err != nil {
		return err
	}

	return s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteParent(tx, p.ID); err != nil {
			return err
		}
		if p.UserID != nil {
			if err := identitypg.NewRepository(tx).Delete(*p.UserID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Children

// CreateChild registers a child into a clinic. When a therapist is
// assigned at creation, the therapist must belong to the same clinic.
func (s *Service) CreateChild(actor *accesscontrol.Actor, dto CreateChildDTO) (*Child, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionAdd, accesscontrol.EntityChild) {
		return nil, internal.ErrPermissionDenied
	}

	clinicID := dto.ClinicID
	if !sees(actor) {
		if actor.ClinicID == nil {
			return nil, internal.ErrPermissionDenied
		}
		clinicID = actor.ClinicID
		dto.ClinicID = clinicID
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	// a parent with no children yet is not in any clinic scope, so the
	// owner reference is checked by existence only
	if _, err := s.repo.GetParentByID(dto.ParentID); err != nil {
		return nil, err
	}
	if dto.AssignedTherapistID != nil {
		if err := s.checkTherapistClinic(actor, *dto.AssignedTherapistID, clinicID); err != nil {
			return nil, err
		}
	}

	c := &Child{
		Name:                dto.Name,
		Age:                 dto.Age,
		Gender:              dto.Gender,
		ClinicID:            clinicID,
		ParentID:            dto.ParentID,
		AssignedTherapistID: dto.AssignedTherapistID,
	}
	if err := s.repo.CreateChild(c); err != nil {
		s.logger.Error("child creation failed", "error", err)
		return nil, err
	}
	return c, nil
}

func (s *Service) GetChild(actor *accesscontrol.Actor, id int64) (*Child, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityChild) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.GetChild(actor, id)
}

func (s *Service) ListChildren(actor *accesscontrol.Actor, limit, offset int) ([]*Child, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityChild) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.ListChildren(actor, normalizeLimit(limit), offset)
}

func (s *Service) UpdateChild(actor *accesscontrol.Actor, id int64, dto UpdateChildDTO) (*Child, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionChange, accesscontrol.EntityChild) {
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetChild(actor, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		c.Name = *dto.Name
	}
	if dto.Age != nil {
		c.Age = *dto.Age
	}
	if dto.Gender != nil {
		c.Gender = *dto.Gender
	}
	if dto.ClearTherapist {
		c.AssignedTherapistID = nil
	} else if dto.AssignedTherapistID != nil {
		if err := s.checkTherapistClinic(actor, *dto.AssignedTherapistID, c.ClinicID); err != nil {
			return nil, err
		}
		c.AssignedTherapistID = dto.AssignedTherapistID
	}

	if err := s.repo.UpdateChild(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteChild(actor *accesscontrol.Actor, id int64) error {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionDelete, accesscontrol.EntityChild) {
		return internal.ErrPermissionDenied
	}
	c, err := s.repo.GetChild(actor, id)
	if err != nil {
		return err
	}
	return s.repo.DeleteChild(c.ID)
}

// Goals

func (s *Service) CreateGoal(actor *accesscontrol.Actor, dto CreateGoalDTO) (*Goal, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionAdd, accesscontrol.EntityGoal) {
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	// chain check: the child must be visible to the actor
	if _, err := s.repo.GetChild(actor, dto.ChildID); err != nil {
		return nil, err
	}

	g := &Goal{
		ChildID:    dto.ChildID,
		Title:      dto.Title,
		IsLongTerm: dto.IsLongTerm,
	}
	if err := s.repo.CreateGoal(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) GetGoal(actor *accesscontrol.Actor, id int64) (*Goal, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityGoal) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.GetGoal(actor, id)
}

func (s *Service) ListGoals(actor *accesscontrol.Actor, childID int64, limit, offset int) ([]*Goal, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityGoal) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.ListGoals(actor, childID, normalizeLimit(limit), offset)
}

func (s *Service) UpdateGoal(actor *accesscontrol.Actor, id int64, dto UpdateGoalDTO) (*Goal, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionChange, accesscontrol.EntityGoal) {
		return nil, internal.ErrPermissionDenied
	}
	g, err := s.repo.GetGoal(actor, id)
	if err != nil {
		return nil, err
	}
	if dto.Title != nil {
		if *dto.Title == "" {
			return nil, internal.NewValidationFieldError("title", "goal title cannot be empty", internal.ErrCodeValidationFailed)
		}
		g.Title = *dto.Title
	}
	if dto.IsLongTerm != nil {
		g.IsLongTerm = *dto.IsLongTerm
	}
	if err := s.repo.UpdateGoal(g); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGoal removes the goal and its tasks and assignments.
func (s *Service) DeleteGoal(actor *accesscontrol.Actor, id int64) error {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionDelete, accesscontrol.EntityGoal) {
		return internal.ErrPermissionDenied
	}
	g, err := s.repo.GetGoal(actor, id)
	if err != nil {
		return err
	}
	return s.repo.DeleteGoal(g.ID)
}

// Tasks

func (s *Service) CreateTask(actor *accesscontrol.Actor, dto CreateTaskDTO) (*Task, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionAdd, accesscontrol.EntityTask) {
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetGoal(actor, dto.GoalID); err != nil {
		return nil, err
	}

	t := &Task{
		GoalID:     dto.GoalID,
		Title:      dto.Title,
		Difficulty: dto.Difficulty,
	}
	if err := s.repo.CreateTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) GetTask(actor *accesscontrol.Actor, id int64) (*Task, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityTask) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.GetTask(actor, id)
}

func (s *Service) ListTasks(actor *accesscontrol.Actor, goalID int64, limit, offset int) ([]*Task, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityTask) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.ListTasks(actor, goalID, normalizeLimit(limit), offset)
}

func (s *Service) UpdateTask(actor *accesscontrol.Actor, id int64, dto UpdateTaskDTO) (*Task, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionChange, accesscontrol.EntityTask) {
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	t, err := s.repo.GetTask(actor, id)
	if err != nil {
		return nil, err
	}
	if dto.Title != nil {
		t.Title = *dto.Title
	}
	if dto.Difficulty != nil {
		t.Difficulty = *dto.Difficulty
	}
	if err := s.repo.UpdateTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTask removes the task and its assignments.
func (s *Service) DeleteTask(actor *accesscontrol.Actor, id int64) error {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionDelete, accesscontrol.EntityTask) {
		return internal.ErrPermissionDenied
	}
	t, err := s.repo.GetTask(actor, id)
	if err != nil {
		return err
	}
	return s.repo.DeleteTask(t.ID)
}

// Assignments

func (s *Service) CreateAssignment(actor *accesscontrol.Actor, dto CreateAssignmentDTO) (*Assignment, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionAdd, accesscontrol.EntityAssignment) {
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	therapistID := dto.TherapistID
	if actor.Role == identity.RoleTherapist {
		therapistID = actor.TherapistID
	}
	if therapistID == nil {
		return nil, internal.NewValidationFieldError("therapist_id", "therapist is required", internal.ErrCodeValidationFailed)
	}

	// both ends of the link must be visible to the actor
	child, err := s.repo.GetChild(actor, dto.ChildID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetTask(actor, dto.TaskID); err != nil {
		return nil, err
	}
	if err := s.checkTherapistClinic(actor, *therapistID, child.ClinicID); err != nil {
		return nil, err
	}

	a := &Assignment{
		ChildID:     dto.ChildID,
		TherapistID: *therapistID,
		TaskID:      dto.TaskID,
		DueDate:     dto.DueDate,
	}
	if err := s.repo.CreateAssignment(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetAssignment(actor *accesscontrol.Actor, id int64) (*Assignment, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityAssignment) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.GetAssignment(actor, id)
}

func (s *Service) ListAssignments(actor *accesscontrol.Actor, childID int64, limit, offset int) ([]*Assignment, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityAssignment) {
		return nil, internal.ErrPermissionDenied
	}
	return s.repo.ListAssignments(actor, childID, normalizeLimit(limit), offset)
}

// UpdateAssignment applies therapist or admin edits. Parents may only
// toggle completion on their own children's assignments.
func (s *Service) UpdateAssignment(actor *accesscontrol.Actor, id int64, dto UpdateAssignmentDTO) (*Assignment, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionChange, accesscontrol.EntityAssignment) {
		return nil, internal.ErrPermissionDenied
	}
	a, err := s.repo.GetAssignment(actor, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == identity.RoleParent && !actor.IsSuperuser {
		if dto.DueDate != nil {
			return nil, internal.ErrPermissionDenied
		}
		if dto.Completed != nil {
			a.Completed = *dto.Completed
		}
	} else {
		if dto.DueDate != nil {
			a.DueDate = dto.DueDate
		}
		if dto.Completed != nil {
			a.Completed = *dto.Completed
		}
	}

	if err := s.repo.UpdateAssignment(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAssignment(actor *accesscontrol.Actor, id int64) error {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionDelete, accesscontrol.EntityAssignment) {
		return internal.ErrPermissionDenied
	}
	a, err := s.repo.GetAssignment(actor, id)
	if err != nil {
		return err
	}
	return s.repo.DeleteAssignment(a.ID)
}

// checkTherapistClinic rejects linking a child to a therapist from a
// different clinic. The therapist must also be visible to the actor.
func (s *Service) checkTherapistClinic(actor *accesscontrol.Actor, therapistID int64, clinicID *int64) error {
	t, err := s.repo.GetTherapist(actor, therapistID)
	if err != nil {
		return err
	}
	if t.ClinicID == nil || clinicID == nil || *t.ClinicID != *clinicID {
		return internal.NewValidationFieldError("assigned_therapist_id",
			"therapist belongs to a different clinic", internal.ErrCodeClinicMismatch)
	}
	return nil
}

func (s *Service) publishProvisioned(ctx context.Context, result *provisioning.Result) {
	if result == nil || s.eventBus == nil {
		return
	}
	event := events.NewUserProvisionedEvent(result.UserID, result.Email, result.FirstName, string(result.Role), result.TempPassword)
	// The request context is cancelled once the handler returns; mail
	// dispatch must outlive it.
	if err := s.eventBus.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("failed to publish provisioning event", "error", err, "user_id", result.UserID)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
