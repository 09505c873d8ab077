// Package accesscontrol decides what a caller may do with each entity
// type and narrows queries to the caller's visibility. All decisions run
// off one declarative capability table keyed by (entity, role); the
// scoped roles additionally prove ownership through the entity's chain
// back to their clinic, therapist profile or client profile.
package accesscontrol

import "github.com/Captainsparrow404/neuvii-backend/internal/identity"

type Action string

const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionChange Action = "change"
	ActionDelete Action = "delete"
)

type Entity string

const (
	EntityClinic           Entity = "clinic"
	EntityTherapistProfile Entity = "therapist_profile"
	EntityParentProfile    Entity = "parent_profile"
	EntityChild            Entity = "child"
	EntityGoal             Entity = "goal"
	EntityTask             Entity = "task"
	EntityAssignment       Entity = "assignment"
	EntityUser             Entity = "user"
)

// Capability is a bitmask of allowed actions.
type Capability uint8

const (
	CapView Capability = 1 << iota
	CapAdd
	CapChange
	CapDelete

	CapNone Capability = 0
	CapAll  Capability = CapView | CapAdd | CapChange | CapDelete
)

func (c Capability) allows(action Action) bool {
	switch action {
	case ActionView:
		return c&CapView != 0
	case ActionAdd:
		return c&CapAdd != 0
	case ActionChange:
		return c&CapChange != 0
	case ActionDelete:
		return c&CapDelete != 0
	}
	return false
}

// policy is the single source of truth for role capabilities per entity.
// A role absent from an entity's row is not in that entity's allowed
// roles at all: no access, empty queries.
var policy = map[Entity]map[identity.Role]Capability{
	EntityClinic: {
		identity.RoleSystemAdmin: CapAll,
		identity.RoleClinicAdmin: CapView | CapChange, // own clinic only, never add/delete
	},
	EntityTherapistProfile: {
		identity.RoleSystemAdmin: CapAll,
		identity.RoleClinicAdmin: CapView | CapAdd | CapChange,
		identity.RoleTherapist:   CapView, // own record
	},
	EntityParentProfile: {
		identity.RoleSystemAdmin: CapAll,
		identity.RoleClinicAdmin: CapView | CapAdd | CapChange,
		identity.RoleTherapist:   CapView,
		identity.RoleParent:      CapView, // own record
	},
	EntityChild: {
		identity.RoleSystemAdmin: CapAll,
		identity.RoleClinicAdmin: CapView | CapAdd | CapChange,
		identity.RoleTherapist:   CapView | CapChange,
		identity.RoleParent:      CapView,
	},
	EntityGoal: {
		identity.RoleSystemAdmin: CapAll,
		identity.RoleClinicAdmin: CapView | CapAdd | CapChange,
		identity.RoleTherapist:   CapAll, // therapists fully manage their caseload
		identity.RoleParent:      CapView,
	},
	EntityTask: {
		identity.RoleSystemAdmin: CapAll,
		identity.RoleClinicAdmin: CapView | CapAdd | CapChange,
		identity.RoleTherapist:   CapAll,
		// Parent deliberately absent: tasks are hidden from parents.
	},
	EntityAssignment: {
		identity.RoleSystemAdmin: CapAll,
		identity.RoleClinicAdmin: CapView | CapAdd | CapChange,
		identity.RoleTherapist:   CapAll,
		identity.RoleParent:      CapView | CapChange, // completion toggling
	},
	EntityUser: {
		identity.RoleSystemAdmin: CapAll,
	},
}

// CanPerform answers the type-level question: may this actor perform the
// action on this entity type at all. Instance ownership is checked
// separately by CanPerformOn.
func CanPerform(actor *Actor, action Action, entity Entity) bool {
	if actor == nil {
		return false
	}
	if actor.IsSuperuser {
		return true
	}
	roles, ok := policy[entity]
	if !ok {
		return false
	}
	caps, ok := roles[actor.Role]
	if !ok {
		return false
	}
	if actor.Role == identity.RoleSystemAdmin {
		return true
	}
	return caps.allows(action)
}

// Ownership carries an instance's resolved chain back to its owners.
// Nil fields mean the chain does not reach that owner type.
type Ownership struct {
	ClinicID    *int64
	TherapistID *int64
	ParentID    *int64
}

// CanPerformOn layers the instance-level ownership check on top of
// CanPerform. For scoped roles the instance's chain must resolve to the
// actor's own sub-entity; an actor with no sub-entity link is denied,
// never errored.
func CanPerformOn(actor *Actor, action Action, entity Entity, own Ownership) bool {
	if !CanPerform(actor, action, entity) {
		return false
	}
	if actor.IsSuperuser || actor.Role == identity.RoleSystemAdmin {
		return true
	}

	switch actor.Role {
	case identity.RoleClinicAdmin:
		if actor.ClinicID == nil || own.ClinicID == nil {
			return false
		}
		return *own.ClinicID == *actor.ClinicID
	case identity.RoleTherapist:
		if actor.TherapistID == nil || own.TherapistID == nil {
			return false
		}
		return *own.TherapistID == *actor.TherapistID
	case identity.RoleParent:
		if actor.ParentID == nil || own.ParentID == nil {
			return false
		}
		return *own.ParentID == *actor.ParentID
	}
	return false
}

// AllowedRoles lists the roles with any capability on the entity.
func AllowedRoles(entity Entity) []identity.Role {
	roles := make([]identity.Role, 0, 4)
	for r := range policy[entity] {
		roles = append(roles, r)
	}
	return roles
}
