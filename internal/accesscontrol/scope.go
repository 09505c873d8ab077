package accesscontrol

import (
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	"gorm.io/gorm"
)

// denyAll forces an empty result set without erroring.
func denyAll(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

func unrestricted(db *gorm.DB) *gorm.DB {
	return db
}

// Scope returns a GORM scope narrowing a query over the entity's table
// to the rows the actor may see. Superusers and system admins are
// unfiltered; unauthenticated callers and roles outside the entity's
// allowed set get an empty scope. Scoped roles with a missing sub-entity
// link also resolve to empty, never to an error.
func Scope(actor *Actor, entity Entity) func(*gorm.DB) *gorm.DB {
	if actor == nil {
		return denyAll
	}
	if actor.IsSuperuser {
		return unrestricted
	}
	if !CanPerform(actor, ActionView, entity) {
		return denyAll
	}
	if actor.Role == identity.RoleSystemAdmin {
		return unrestricted
	}

	switch actor.Role {
	case identity.RoleClinicAdmin:
		return clinicAdminScope(actor, entity)
	case identity.RoleTherapist:
		return therapistScope(actor, entity)
	case identity.RoleParent:
		return parentScope(actor, entity)
	}
	return denyAll
}

func clinicAdminScope(actor *Actor, entity Entity) func(*gorm.DB) *gorm.DB {
	if actor.ClinicID == nil {
		return denyAll
	}
	clinicID := *actor.ClinicID

	switch entity {
	case EntityClinic:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("clinics.id = ?", clinicID)
		}
	case EntityTherapistProfile:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("therapist_profiles.clinic_id = ?", clinicID)
		}
	case EntityParentProfile:
		return func(db *gorm.DB) *gorm.DB {
			return db.Distinct("parent_profiles.*").
				Joins("JOIN children ON children.parent_id = parent_profiles.id").
				Where("children.clinic_id = ?", clinicID)
		}
	case EntityChild:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("children.clinic_id = ?", clinicID)
		}
	case EntityGoal:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("JOIN children ON children.id = goals.child_id").
				Where("children.clinic_id = ?", clinicID)
		}
	case EntityTask:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("JOIN goals ON goals.id = tasks.goal_id").
				Joins("JOIN children ON children.id = goals.child_id").
				Where("children.clinic_id = ?", clinicID)
		}
	case EntityAssignment:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("JOIN children ON children.id = assignments.child_id").
				Where("children.clinic_id = ?", clinicID)
		}
	}
	return denyAll
}

func therapistScope(actor *Actor, entity Entity) func(*gorm.DB) *gorm.DB {
	if actor.TherapistID == nil {
		return denyAll
	}
	therapistID := *actor.TherapistID

	switch entity {
	case EntityTherapistProfile:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("therapist_profiles.id = ?", therapistID)
		}
	case EntityParentProfile:
		return func(db *gorm.DB) *gorm.DB {
			return db.Distinct("parent_profiles.*").
				Joins("JOIN children ON children.parent_id = parent_profiles.id").
				Where("children.assigned_therapist_id = ?", therapistID)
		}
	case EntityChild:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("children.assigned_therapist_id = ?", therapistID)
		}
	case EntityGoal:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("JOIN children ON children.id = goals.child_id").
				Where("children.assigned_therapist_id = ?", therapistID)
		}
	case EntityTask:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("JOIN goals ON goals.id = tasks.goal_id").
				Joins("JOIN children ON children.id = goals.child_id").
				Where("children.assigned_therapist_id = ?", therapistID)
		}
	case EntityAssignment:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("assignments.therapist_id = ?", therapistID)
		}
	}
	return denyAll
}

func parentScope(actor *Actor, entity Entity) func(*gorm.DB) *gorm.DB {
	if actor.ParentID == nil {
		return denyAll
	}
	parentID := *actor.ParentID

	switch entity {
	case EntityParentProfile:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("parent_profiles.id = ?", parentID)
		}
	case EntityChild:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("children.parent_id = ?", parentID)
		}
	case EntityGoal:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("JOIN children ON children.id = goals.child_id").
				Where("children.parent_id = ?", parentID)
		}
	case EntityAssignment:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("JOIN children ON children.id = assignments.child_id").
				Where("children.parent_id = ?", parentID)
		}
	}
	return denyAll
}
