package clinic

import (
	"github.com/Captainsparrow404/neuvii-backend/internal"
)

// CreateClinicDTO carries the fields accepted when onboarding a clinic.
// Email and contact person are required because the admin account is
// provisioned from them.
type CreateClinicDTO struct {
	Name              string `json:"name"`
	AddressLine1      string `json:"address_line_1"`
	AddressLine2      string `json:"address_line_2"`
	City              string `json:"city"`
	Country           string `json:"country"`
	ContactPersonName string `json:"contact_person_name"`
	ContactRole       string `json:"contact_role"`
	Email             string `json:"email"`
	AgreementSigned   bool   `json:"agreement_signed"`
	LicenseStatus     string `json:"license_status"`
	InternalNotes     string `json:"internal_notes"`
	IsActive          *bool  `json:"is_active"`
}

func (d CreateClinicDTO) Validate() error {
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "clinic name is required", internal.ErrCodeValidationFailed)
	}
	if d.Email == "" {
		return internal.NewValidationFieldError("email", "email is required to create clinic admin account", internal.ErrCodeMissingContact)
	}
	if d.ContactPersonName == "" {
		return internal.NewValidationFieldError("contact_person_name", "contact person name is required to create clinic admin account", internal.ErrCodeMissingContact)
	}
	if d.LicenseStatus != "" && d.LicenseStatus != LicenseActive && d.LicenseStatus != LicenseInactive {
		return internal.NewValidationFieldError("license_status", "license status must be Active or Inactive", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateClinicDTO uses pointers so omitted fields stay untouched.
// Admin-link and internal-notes updates are restricted in the service.
type UpdateClinicDTO struct {
	Name              *string `json:"name"`
	AddressLine1      *string `json:"address_line_1"`
	AddressLine2      *string `json:"address_line_2"`
	City              *string `json:"city"`
	Country           *string `json:"country"`
	ContactPersonName *string `json:"contact_person_name"`
	ContactRole       *string `json:"contact_role"`
	AgreementSigned   *bool   `json:"agreement_signed"`
	LicenseStatus     *string `json:"license_status"`
	InternalNotes     *string `json:"internal_notes"`
	IsActive          *bool   `json:"is_active"`
	ClinicAdminID     *int64  `json:"clinic_admin_id"`
}

func (d UpdateClinicDTO) Validate() error {
	if d.Name != nil && *d.Name == "" {
		return internal.NewValidationFieldError("name", "clinic name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if d.LicenseStatus != nil && *d.LicenseStatus != LicenseActive && *d.LicenseStatus != LicenseInactive {
		return internal.NewValidationFieldError("license_status", "license status must be Active or Inactive", internal.ErrCodeValidationFailed)
	}
	return nil
}
