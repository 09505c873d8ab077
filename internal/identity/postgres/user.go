package postgres

import (
	"errors"

	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	"gorm.io/gorm"
)

// Repository implements identity lookups and writes using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByEmail(email string) (*identity.User, error) {
	var user identity.User
	err := r.db.Preload("RoleRef").
		Where("lower(email) = ?", identity.NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}

	perms, err := r.GetPermissions(user.ID)
	if err != nil {
		return nil, err
	}
	user.Permissions = perms
	return &user, nil
}

func (r *Repository) GetByID(id int64) (*identity.User, error) {
	var user identity.User
	err := r.db.Preload("RoleRef").Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}

	perms, err := r.GetPermissions(user.ID)
	if err != nil {
		return nil, err
	}
	user.Permissions = perms
	return &user, nil
}

func (r *Repository) GetPermissions(userID int64) ([]string, error) {
	var codenames []string
	err := r.db.Model(&identity.Permission{}).
		Joins("JOIN user_permissions up ON up.permission_id = permissions.id").
		Where("up.user_id = ?", userID).
		Pluck("permissions.codename", &codenames).Error
	if err != nil {
		return nil, err
	}
	return codenames, nil
}

func (r *Repository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&identity.User{}).
		Where("lower(email) = ?", identity.NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(user *identity.User) error {
	user.Email = identity.NormalizeEmail(user.Email)
	return r.db.Create(user).Error
}

// UpdatePassword stores a new password hash and clears the reset flag.
// promoteStaff additionally flips is_staff for admin-side roles.
func (r *Repository) UpdatePassword(userID int64, passwordHash string, promoteStaff bool) error {
	updates := map[string]interface{}{
		"password_hash":           passwordHash,
		"password_reset_required": false,
	}
	if promoteStaff {
		updates["is_staff"] = true
	}
	return r.db.Model(&identity.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *Repository) EnsureRole(name string) (*identity.RoleRecord, error) {
	var role identity.RoleRecord
	err := r.db.Where(identity.RoleRecord{Name: name}).FirstOrCreate(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *Repository) EnsureGroup(name string) (*identity.Group, error) {
	var group identity.Group
	err := r.db.Where(identity.Group{Name: name}).FirstOrCreate(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *Repository) AddToGroup(userID, groupID int64) error {
	link := identity.UserGroup{UserID: userID, GroupID: groupID}
	return r.db.Where(link).FirstOrCreate(&link).Error
}

// ErrPermissionMissing is returned when a grant names a codename that is
// not in the permission catalog. Callers treat it as a warning.
var ErrPermissionMissing = errors.New("permission not found")

func (r *Repository) GrantPermission(userID int64, codename string, grantedBy *int64) error {
	var perm identity.Permission
	if err := r.db.Where("codename = ?", codename).First(&perm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPermissionMissing
		}
		return err
	}
	link := identity.UserPermission{UserID: userID, PermissionID: perm.ID}
	return r.db.Where(identity.UserPermission{UserID: userID, PermissionID: perm.ID}).
		Attrs(identity.UserPermission{GrantedBy: grantedBy}).
		FirstOrCreate(&link).Error
}

func (r *Repository) Delete(userID int64) error {
	return r.db.Delete(&identity.User{}, userID).Error
}
