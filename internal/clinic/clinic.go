package clinic

import (
	"time"

	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
)

// LicenseStatus values accepted on a clinic record.
const (
	LicenseActive   = "Active"
	LicenseInactive = "Inactive"
)

// Clinic is a tenant boundary. At most one admin user is linked; once
// set, the link is only re-assignable by a system admin.
type Clinic struct {
	ID                int64   `gorm:"primaryKey" json:"id"`
	Name              string  `json:"name"`
	AddressLine1      string  `json:"address_line_1"`
	AddressLine2      string  `json:"address_line_2"`
	City              string  `json:"city"`
	Country           string  `json:"country"`
	ContactPersonName string  `json:"contact_person_name"`
	ContactRole       string  `json:"contact_role"`
	Email             string  `json:"email"`
	ClinicAdminID     *int64  `gorm:"uniqueIndex" json:"clinic_admin_id,omitempty"`
	AgreementSigned   bool    `json:"agreement_signed"`
	LicenseStatus     string  `json:"license_status"`
	InternalNotes     string  `json:"internal_notes,omitempty"`
	IsActive          bool    `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Clinic) TableName() string { return "clinics" }

// Ownership resolves the clinic's own chain: itself.
func (c *Clinic) Ownership() accesscontrol.Ownership {
	id := c.ID
	return accesscontrol.Ownership{ClinicID: &id}
}

// View is the serialized shape of a clinic. Internal notes are narrowed
// away for everyone but system admins; narrowing is presentation only
// and never widens what the policy table grants.
type View struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	AddressLine1      string    `json:"address_line_1"`
	AddressLine2      string    `json:"address_line_2"`
	City              string    `json:"city"`
	Country           string    `json:"country"`
	ContactPersonName string    `json:"contact_person_name"`
	ContactRole       string    `json:"contact_role"`
	Email             string    `json:"email"`
	ClinicAdminID     *int64    `json:"clinic_admin_id,omitempty"`
	AgreementSigned   bool      `json:"agreement_signed"`
	LicenseStatus     string    `json:"license_status"`
	InternalNotes     *string   `json:"internal_notes,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

func (c *Clinic) ToView(includeInternal bool) View {
	v := View{
		ID:                c.ID,
		Name:              c.Name,
		AddressLine1:      c.AddressLine1,
		AddressLine2:      c.AddressLine2,
		City:              c.City,
		Country:           c.Country,
		ContactPersonName: c.ContactPersonName,
		ContactRole:       c.ContactRole,
		Email:             c.Email,
		ClinicAdminID:     c.ClinicAdminID,
		AgreementSigned:   c.AgreementSigned,
		LicenseStatus:     c.LicenseStatus,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
	}
	if includeInternal {
		notes := c.InternalNotes
		v.InternalNotes = &notes
	}
	return v
}
