package postgres

import (
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/clinic"
	"gorm.io/gorm"
)

// ClinicRepository implements the clinic.Repository interface using GORM
type ClinicRepository struct {
	db *gorm.DB
}

func NewClinicRepository(db *gorm.DB) clinic.Repository {
	return &ClinicRepository{db: db}
}

// Transaction runs fn inside a database transaction. Provisioning a
// clinic admin happens on the same transaction as the clinic row.
func (r *ClinicRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func (r *ClinicRepository) Create(tx *gorm.DB, c *clinic.Clinic) error {
	return tx.Create(c).Error
}

// GetScoped fetches one clinic visible to the actor. A clinic outside
// the actor's scope reads as not found, never as forbidden.
func (r *ClinicRepository) GetScoped(actor *accesscontrol.Actor, id int64) (*clinic.Clinic, error) {
	var c clinic.Clinic
	err := r.db.
		Scopes(accesscontrol.Scope(actor, accesscontrol.EntityClinic)).
		Where("clinics.id = ?", id).
		First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, clinic.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClinicRepository) ListScoped(actor *accesscontrol.Actor, limit, offset int) ([]*clinic.Clinic, error) {
	var clinics []*clinic.Clinic
	err := r.db.
		Scopes(accesscontrol.Scope(actor, accesscontrol.EntityClinic)).
		Order("clinics.name ASC").
		Limit(limit).
		Offset(offset).
		Find(&clinics).Error
	return clinics, err
}

func (r *ClinicRepository) Update(c *clinic.Clinic) error {
	return r.db.Save(c).Error
}

// Delete removes the clinic. Therapist and child rows keep existing
// with their clinic reference cleared by the schema's ON DELETE rules.
func (r *ClinicRepository) Delete(id int64) error {
	result := r.db.Delete(&clinic.Clinic{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return clinic.ErrNotFound
	}
	return nil
}
