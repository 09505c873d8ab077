package identity

import (
	"errors"
	"strings"
	"time"
)

// Role is the closed set of roles the platform knows about. Role names
// are compared exactly; everything outside this set is treated as no role.
type Role string

const (
	RoleSystemAdmin Role = "Neuvii Admin"
	RoleClinicAdmin Role = "Clinic Admin"
	RoleTherapist   Role = "Therapist"
	RoleParent      Role = "Parent"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleClinicAdmin, RoleTherapist, RoleParent:
		return true
	}
	return false
}

// GroupName maps a role to its default group.
func (r Role) GroupName() string {
	switch r {
	case RoleSystemAdmin:
		return "neuvii_admin"
	case RoleClinicAdmin:
		return "clinic_admin"
	case RoleTherapist:
		return "therapist"
	case RoleParent:
		return "parent"
	}
	return ""
}

// StaffAccess reports whether users with this role get admin-side access.
// Parents stay on the client surface.
func (r Role) StaffAccess() bool {
	switch r {
	case RoleSystemAdmin, RoleClinicAdmin, RoleTherapist:
		return true
	}
	return false
}

func ParseRole(name string) (Role, bool) {
	r := Role(name)
	return r, r.Valid()
}

// RoleRecord is the persisted role row. Kept separate from the Role
// enum so user rows reference roles by id.
type RoleRecord struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name"`
}

func (RoleRecord) TableName() string { return "roles" }

type Group struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name"`
}

func (Group) TableName() string { return "groups" }

type Permission struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Codename    string    `gorm:"uniqueIndex" json:"codename"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Permission) TableName() string { return "permissions" }

type UserGroup struct {
	UserID  int64 `gorm:"primaryKey"`
	GroupID int64 `gorm:"primaryKey"`
}

func (UserGroup) TableName() string { return "user_groups" }

type UserPermission struct {
	UserID       int64  `gorm:"primaryKey"`
	PermissionID int64  `gorm:"primaryKey"`
	GrantedBy    *int64 `json:"granted_by,omitempty"`
}

func (UserPermission) TableName() string { return "user_permissions" }

// User is an authenticated principal. Email is the sole login identifier
// and is stored lowercased.
type User struct {
	ID                    int64       `gorm:"primaryKey" json:"id"`
	Email                 string      `gorm:"uniqueIndex" json:"email"`
	FirstName             string      `json:"first_name"`
	LastName              string      `json:"last_name"`
	PasswordHash          string      `json:"-"`
	IsActive              bool        `json:"is_active"`
	IsStaff               bool        `json:"is_staff"`
	IsSuperuser           bool        `json:"is_superuser"`
	PasswordResetRequired bool        `json:"password_reset_required"`
	RoleID                *int64      `json:"-"`
	RoleRef               *RoleRecord `gorm:"foreignKey:RoleID" json:"-"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`

	Permissions []string `gorm:"-" json:"permissions,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Role returns the user's role, or empty string when none is assigned.
func (u *User) Role() Role {
	if u.RoleRef == nil {
		return ""
	}
	r, ok := ParseRole(u.RoleRef.Name)
	if !ok {
		return ""
	}
	return r
}

func (u *User) HasPermission(codename string) bool {
	for _, p := range u.Permissions {
		if p == codename {
			return true
		}
	}
	return false
}

func (u *User) HasAnyPermission(codenames []string) bool {
	for _, userPerm := range u.Permissions {
		for _, required := range codenames {
			if userPerm == required {
				return true
			}
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SplitName splits a full name into first name and remainder. An empty
// name falls back to "Admin" so provisioned accounts always have one.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "Admin", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

var ErrNotFound = errors.New("user not found")
