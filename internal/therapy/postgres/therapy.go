package postgres

import (
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/therapy"
	"gorm.io/gorm"
)

// TherapyRepository implements the therapy.Repository interface using GORM
type TherapyRepository struct {
	db *gorm.DB
}

func NewTherapyRepository(db *gorm.DB) therapy.Repository {
	return &TherapyRepository{db: db}
}

func (r *TherapyRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func scopedFirst[T any](db *gorm.DB, actor *accesscontrol.Actor, entity accesscontrol.Entity, idColumn string, id int64, notFound error) (*T, error) {
	var row T
	err := db.
		Scopes(accesscontrol.Scope(actor, entity)).
		Where(idColumn+" = ?", id).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound
		}
		return nil, err
	}
	return &row, nil
}

// Therapists

func (r *TherapyRepository) CreateTherapist(tx *gorm.DB, t *therapy.TherapistProfile) error {
	return tx.Create(t).Error
}

func (r *TherapyRepository) GetTherapist(actor *accesscontrol.Actor, id int64) (*therapy.TherapistProfile, error) {
	return scopedFirst[therapy.TherapistProfile](r.db, actor, accesscontrol.EntityTherapistProfile, "therapist_profiles.id", id, therapy.ErrTherapistNotFound)
}

func (r *TherapyRepository) ListTherapists(actor *accesscontrol.Actor, limit, offset int) ([]*therapy.TherapistProfile, error) {
	var rows []*therapy.TherapistProfile
	err := r.db.
		Scopes(accesscontrol.Scope(actor, accesscontrol.EntityTherapistProfile)).
		Order("therapist_profiles.last_name ASC, therapist_profiles.first_name ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

func (r *TherapyRepository) UpdateTherapist(t *therapy.TherapistProfile) error {
	return r.db.Save(t).Error
}

// DeleteTherapist removes the profile on the given transaction. Children
// keep existing with assigned_therapist_id cleared by the schema; the
// linked user is removed by the service on the same transaction.
func (r *TherapyRepository) DeleteTherapist(tx *gorm.DB, id int64) error {
	result := tx.Delete(&therapy.TherapistProfile{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return therapy.ErrTherapistNotFound
	}
	return nil
}

// Parents

func (r *TherapyRepository) CreateParent(tx *gorm.DB, p *therapy.ParentProfile) error {
	return tx.Create(p).Error
}

func (r *TherapyRepository) GetParent(actor *accesscontrol.Actor, id int64) (*therapy.ParentProfile, error) {
	return scopedFirst[therapy.ParentProfile](r.db, actor, accesscontrol.EntityParentProfile, "parent_profiles.id", id, therapy.ErrParentNotFound)
}

func (r *TherapyRepository) GetParentByID(id int64) (*therapy.ParentProfile, error) {
	var p therapy.ParentProfile
	err := r.db.First(&p, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, therapy.ErrParentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *TherapyRepository) ListParents(actor *accesscontrol.Actor, limit, offset int) ([]*therapy.ParentProfile, error) {
	var rows []*therapy.ParentProfile
	err := r.db.
		Scopes(accesscontrol.Scope(actor, accesscontrol.EntityParentProfile)).
		Order("parent_profiles.last_name ASC, parent_profiles.first_name ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

func (r *TherapyRepository) UpdateParent(p *therapy.ParentProfile) error {
	return r.db.Save(p).Error
}

// DeleteParent removes the profile on the given transaction. Children
// and their goal/task/assignment trees go with it per the schema's
// cascade rules; the linked user is removed by the service.
func (r *TherapyRepository) DeleteParent(tx *gorm.DB, id int64) error {
	result := tx.Delete(&therapy.ParentProfile{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return therapy.ErrParentNotFound
	}
	return nil
}

// Children

func (r *TherapyRepository) CreateChild(c *therapy.Child) error {
	return r.db.Create(c).Error
}

func (r *TherapyRepository) GetChild(actor *accesscontrol.Actor, id int64) (*therapy.Child, error) {
	return scopedFirst[therapy.Child](r.db, actor, accesscontrol.EntityChild, "children.id", id, therapy.ErrChildNotFound)
}

func (r *TherapyRepository) ListChildren(actor *accesscontrol.Actor, limit, offset int) ([]*therapy.Child, error) {
	var rows []*therapy.Child
	err := r.db.
		Scopes(accesscontrol.Scope(actor, accesscontrol.EntityChild)).
		Order("children.name ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

func (r *TherapyRepository) UpdateChild(c *therapy.Child) error {
	return r.db.Save(c).Error
}

func (r *TherapyRepository) DeleteChild(id int64) error {
	result := r.db.Delete(&therapy.Child{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return therapy.ErrChildNotFound
	}
	return nil
}

// Goals

func (r *TherapyRepository) CreateGoal(g *therapy.Goal) error {
	return r.db.Create(g).Error
}

func (r *TherapyRepository) GetGoal(actor *accesscontrol.Actor, id int64) (*therapy.Goal, error) {
	return scopedFirst[therapy.Goal](r.db, actor, accesscontrol.EntityGoal, "goals.id", id, therapy.ErrGoalNotFound)
}

func (r *TherapyRepository) ListGoals(actor *accesscontrol.Actor, childID int64, limit, offset int) ([]*therapy.Goal, error) {
	q := r.db.Scopes(accesscontrol.Scope(actor, accesscontrol.EntityGoal))
	if childID > 0 {
		q = q.Where("goals.child_id = ?", childID)
	}
	var rows []*therapy.Goal
	err := q.Order("goals.id ASC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}

func (r *TherapyRepository) UpdateGoal(g *therapy.Goal) error {
	return r.db.Save(g).Error
}

func (r *TherapyRepository) DeleteGoal(id int64) error {
	result := r.db.Delete(&therapy.Goal{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return therapy.ErrGoalNotFound
	}
	return nil
}

// Tasks

func (r *TherapyRepository) CreateTask(t *therapy.Task) error {
	return r.db.Create(t).Error
}

func (r *TherapyRepository) GetTask(actor *accesscontrol.Actor, id int64) (*therapy.Task, error) {
	return scopedFirst[therapy.Task](r.db, actor, accesscontrol.EntityTask, "tasks.id", id, therapy.ErrTaskNotFound)
}

func (r *TherapyRepository) ListTasks(actor *accesscontrol.Actor, goalID int64, limit, offset int) ([]*therapy.Task, error) {
	q := r.db.Scopes(accesscontrol.Scope(actor, accesscontrol.EntityTask))
	if goalID > 0 {
		q = q.Where("tasks.goal_id = ?", goalID)
	}
	var rows []*therapy.Task
	err := q.Order("tasks.id ASC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}

func (r *TherapyRepository) UpdateTask(t *therapy.Task) error {
	return r.db.Save(t).Error
}

func (r *TherapyRepository) DeleteTask(id int64) error {
	result := r.db.Delete(&therapy.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return therapy.ErrTaskNotFound
	}
	return nil
}

// Assignments

func (r *TherapyRepository) CreateAssignment(a *therapy.Assignment) error {
	return r.db.Create(a).Error
}

func (r *TherapyRepository) GetAssignment(actor *accesscontrol.Actor, id int64) (*therapy.Assignment, error) {
	return scopedFirst[therapy.Assignment](r.db, actor, accesscontrol.EntityAssignment, "assignments.id", id, therapy.ErrAssignmentNotFound)
}

func (r *TherapyRepository) ListAssignments(actor *accesscontrol.Actor, childID int64, limit, offset int) ([]*therapy.Assignment, error) {
	q := r.db.Scopes(accesscontrol.Scope(actor, accesscontrol.EntityAssignment))
	if childID > 0 {
		q = q.Where("assignments.child_id = ?", childID)
	}
	var rows []*therapy.Assignment
	err := q.Order("assignments.assigned_date DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}

func (r *TherapyRepository) UpdateAssignment(a *therapy.Assignment) error {
	return r.db.Save(a).Error
}

func (r *TherapyRepository) DeleteAssignment(id int64) error {
	result := r.db.Delete(&therapy.Assignment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return therapy.ErrAssignmentNotFound
	}
	return nil
}
