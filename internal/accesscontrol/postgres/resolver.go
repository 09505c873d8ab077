package postgres

import (
	"errors"

	"gorm.io/gorm"
)

// Resolver finds the sub-entity links that anchor a user's scope: the
// clinic they administer, their therapist profile, their client profile.
// Missing links come back nil, which the engine treats as "sees nothing".
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

func (r *Resolver) ResolveScope(userID int64) (clinicID, therapistID, parentID *int64, err error) {
	clinicID, err = r.lookup("clinics", "clinic_admin_id", userID)
	if err != nil {
		return nil, nil, nil, err
	}
	therapistID, err = r.lookup("therapist_profiles", "user_id", userID)
	if err != nil {
		return nil, nil, nil, err
	}
	parentID, err = r.lookup("parent_profiles", "user_id", userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return clinicID, therapistID, parentID, nil
}

func (r *Resolver) lookup(table, column string, userID int64) (*int64, error) {
	var id int64
	err := r.db.Table(table).Select("id").Where(column+" = ?", userID).Take(&id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &id, nil
}
