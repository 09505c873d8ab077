// Package provisioning creates login-capable users as a cascade of
// creating a clinic, therapist profile or client profile. The whole
// sequence runs inside the caller's transaction so the owning entity and
// its user commit or fail together; the welcome message is dispatched by
// the caller only after commit.
package provisioning

import (
	"fmt"
	"log/slog"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/auth"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	identitypg "github.com/Captainsparrow404/neuvii-backend/internal/identity/postgres"
	"gorm.io/gorm"
)

// Role permission bundles, granted as direct user grants on top of the
// group membership. Codenames missing from the catalog are reported and
// skipped, never fatal.
var rolePermissions = map[identity.Role][]string{
	identity.RoleClinicAdmin: {
		"add_therapistprofile", "change_therapistprofile", "view_therapistprofile",
		"add_parentprofile", "change_parentprofile", "view_parentprofile",
		"add_child", "change_child", "view_child",
		"view_clinic",
	},
	identity.RoleTherapist: {
		"add_assignment", "change_assignment", "view_assignment",
		"add_goal", "change_goal", "view_goal",
		"add_task", "change_task", "view_task",
		"view_child", "change_child",
	},
	identity.RoleParent: nil, // group membership only
}

// Subject describes the entity a user account is provisioned for.
// BackLink persists the owning entity's user reference as a single-field
// update inside the same transaction.
type Subject struct {
	Role     identity.Role
	Email    string
	FullName string
	Active   bool

	// AlreadyLinked short-circuits the whole sequence: provisioning an
	// entity that has its user is a no-op.
	AlreadyLinked bool

	BackLink func(tx *gorm.DB, userID int64) error
}

// Result reports what was provisioned so the caller can dispatch the
// welcome message after commit. Nil when provisioning was a no-op.
type Result struct {
	UserID       int64
	Email        string
	FirstName    string
	Role         identity.Role
	TempPassword string
}

type Engine struct {
	logger     *slog.Logger
	bcryptCost int
}

func NewEngine(logger *slog.Logger, bcryptCost int) *Engine {
	return &Engine{logger: logger, bcryptCost: bcryptCost}
}

// Provision runs the account cascade on the given transaction. The
// returned Result is nil for a no-op re-entry.
func (e *Engine) Provision(tx *gorm.DB, sub Subject) (*Result, error) {
	if sub.AlreadyLinked {
		e.logger.Info("provisioning skipped: entity already has a linked user", "email", sub.Email, "role", sub.Role)
		return nil, nil
	}
	if sub.Email == "" {
		return nil, internal.NewValidationFieldError("email", "email is required to create user account", internal.ErrCodeMissingContact)
	}
	if !sub.Role.Valid() {
		return nil, fmt.Errorf("provisioning: invalid role %q", sub.Role)
	}

	repo := identitypg.NewRepository(tx)

	exists, err := repo.EmailExists(sub.Email)
	if err != nil {
		return nil, fmt.Errorf("provisioning: email lookup: %w", err)
	}
	if exists {
		return nil, internal.ErrEmailAlreadyRegistered
	}

	role, err := repo.EnsureRole(string(sub.Role))
	if err != nil {
		return nil, fmt.Errorf("provisioning: ensure role: %w", err)
	}

	firstName, lastName := identity.SplitName(sub.FullName)

	tempPassword, err := auth.GenerateTempPassword()
	if err != nil {
		return nil, fmt.Errorf("provisioning: temp password: %w", err)
	}
	hash, err := auth.HashPassword(tempPassword, e.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("provisioning: hash password: %w", err)
	}

	user := &identity.User{
		Email:                 identity.NormalizeEmail(sub.Email),
		FirstName:             firstName,
		LastName:              lastName,
		PasswordHash:          hash,
		IsActive:              sub.Active,
		IsStaff:               sub.Role.StaffAccess(),
		PasswordResetRequired: true,
		RoleID:                &role.ID,
	}
	if err := repo.Create(user); err != nil {
		return nil, fmt.Errorf("provisioning: create user: %w", err)
	}

	group, err := repo.EnsureGroup(sub.Role.GroupName())
	if err != nil {
		return nil, fmt.Errorf("provisioning: ensure group: %w", err)
	}
	if err := repo.AddToGroup(user.ID, group.ID); err != nil {
		return nil, fmt.Errorf("provisioning: add to group: %w", err)
	}

	for _, codename := range rolePermissions[sub.Role] {
		if err := repo.GrantPermission(user.ID, codename, nil); err != nil {
			if err == identitypg.ErrPermissionMissing {
				e.logger.Warn("provisioning: permission not found, skipping",
					"codename", codename, "user_id", user.ID, "role", sub.Role)
				continue
			}
			return nil, fmt.Errorf("provisioning: grant %s: %w", codename, err)
		}
	}

	if sub.BackLink != nil {
		if err := sub.BackLink(tx, user.ID); err != nil {
			return nil, fmt.Errorf("provisioning: back-link: %w", err)
		}
	}

	e.logger.Info("user account provisioned",
		"user_id", user.ID, "email", user.Email, "role", sub.Role, "staff", user.IsStaff)

	return &Result{
		UserID:       user.ID,
		Email:        user.Email,
		FirstName:    firstName,
		Role:         sub.Role,
		TempPassword: tempPassword,
	}, nil
}
