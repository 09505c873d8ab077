package accesscontrol

import (
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
)

// Actor is the authorization view of an authenticated user: role plus
// the resolved ids of the sub-entities that anchor their scope. A nil
// pointer means the link does not exist yet (a therapist user whose
// profile was removed, say) and scoped access resolves to nothing.
type Actor struct {
	UserID      int64
	Email       string
	Role        identity.Role
	IsSuperuser bool
	Permissions []string

	ClinicID    *int64
	TherapistID *int64
	ParentID    *int64
}

// ScopeResolver looks up the sub-entity links for a user. Implemented
// against the store; the auth middleware calls it once per request.
type ScopeResolver interface {
	ResolveScope(userID int64) (clinicID, therapistID, parentID *int64, err error)
}

// NewActor builds an Actor from an identity user and its resolved scope.
func NewActor(user *identity.User, clinicID, therapistID, parentID *int64) *Actor {
	return &Actor{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role(),
		IsSuperuser: user.IsSuperuser,
		Permissions: user.Permissions,
		ClinicID:    clinicID,
		TherapistID: therapistID,
		ParentID:    parentID,
	}
}
