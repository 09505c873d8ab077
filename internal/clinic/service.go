package clinic

import (
	"context"
	"log/slog"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/core/events"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	"github.com/Captainsparrow404/neuvii-backend/internal/provisioning"
	"gorm.io/gorm"
)

// ErrNotFound is returned for clinics that do not exist or sit outside
// the caller's scope.
var ErrNotFound = internal.ErrClinicNotFound

// Repository interface defines the data access methods for clinics
type Repository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	Create(tx *gorm.DB, c *Clinic) error
	GetScoped(actor *accesscontrol.Actor, id int64) (*Clinic, error)
	ListScoped(actor *accesscontrol.Actor, limit, offset int) ([]*Clinic, error)
	Update(c *Clinic) error
	Delete(id int64) error
}

// Service handles clinic onboarding and lifecycle
type Service struct {
	repo     Repository
	engine   *provisioning.Engine
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, engine *provisioning.Engine, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateClinic creates a clinic and provisions its admin account inside
// one transaction. The welcome message goes out only after commit.
func (s *Service) CreateClinic(ctx context.Context, actor *accesscontrol.Actor, dto CreateClinicDTO) (*View, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionAdd, accesscontrol.EntityClinic) {
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		s.logger.Error("clinic validation failed", "error", err)
		return nil, err
	}

	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	licenseStatus := dto.LicenseStatus
	if licenseStatus == "" {
		licenseStatus = LicenseActive
	}

	c := &Clinic{
		Name:              dto.Name,
		AddressLine1:      dto.AddressLine1,
		AddressLine2:      dto.AddressLine2,
		City:              dto.City,
		Country:           dto.Country,
		ContactPersonName: dto.ContactPersonName,
		ContactRole:       dto.ContactRole,
		Email:             identity.NormalizeEmail(dto.Email),
		AgreementSigned:   dto.AgreementSigned,
		LicenseStatus:     licenseStatus,
		InternalNotes:     dto.InternalNotes,
		IsActive:          active,
	}

	var provisioned *provisioning.Result
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(tx, c); err != nil {
			return err
		}

		result, err := s.engine.Provision(tx, provisioning.Subject{
			Role:     identity.RoleClinicAdmin,
			Email:    c.Email,
			FullName: c.ContactPersonName,
			Active:   c.IsActive,
			BackLink: func(tx *gorm.DB, userID int64) error {
				c.ClinicAdminID = &userID
				return tx.Model(&Clinic{}).Where("id = ?", c.ID).
					Update("clinic_admin_id", userID).Error
			},
		})
		if err != nil {
			return err
		}
		provisioned = result
		return nil
	})
	if err != nil {
		s.logger.Error("clinic creation failed", "error", err, "name", dto.Name)
		return nil, err
	}

	s.publishProvisioned(ctx, provisioned)

	view := c.ToView(s.seesInternal(actor))
	return &view, nil
}

func (s *Service) GetClinic(actor *accesscontrol.Actor, id int64) (*View, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityClinic) {
		return nil, internal.ErrPermissionDenied
	}
	c, err := s.repo.GetScoped(actor, id)
	if err != nil {
		return nil, err
	}
	view := c.ToView(s.seesInternal(actor))
	return &view, nil
}

func (s *Service) ListClinics(actor *accesscontrol.Actor, limit, offset int) ([]View, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionView, accesscontrol.EntityClinic) {
		return nil, internal.ErrPermissionDenied
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	clinics, err := s.repo.ListScoped(actor, limit, offset)
	if err != nil {
		return nil, err
	}
	includeInternal := s.seesInternal(actor)
	views := make([]View, 0, len(clinics))
	for _, c := range clinics {
		views = append(views, c.ToView(includeInternal))
	}
	return views, nil
}

// UpdateClinic applies a partial update. Re-assigning the admin link
// and editing internal notes stay reserved for system admins.
func (s *Service) UpdateClinic(actor *accesscontrol.Actor, id int64, dto UpdateClinicDTO) (*View, error) {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionChange, accesscontrol.EntityClinic) {
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if (dto.ClinicAdminID != nil || dto.InternalNotes != nil) && !s.seesInternal(actor) {
		return nil, internal.ErrPermissionDenied
	}

	c, err := s.repo.GetScoped(actor, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		c.Name = *dto.Name
	}
	if dto.AddressLine1 != nil {
		c.AddressLine1 = *dto.AddressLine1
	}
	if dto.AddressLine2 != nil {
		c.AddressLine2 = *dto.AddressLine2
	}
	if dto.City != nil {
		c.City = *dto.City
	}
	if dto.Country != nil {
		c.Country = *dto.Country
	}
	if dto.ContactPersonName != nil {
		c.ContactPersonName = *dto.ContactPersonName
	}
	if dto.ContactRole != nil {
		c.ContactRole = *dto.ContactRole
	}
	if dto.AgreementSigned != nil {
		c.AgreementSigned = *dto.AgreementSigned
	}
	if dto.LicenseStatus != nil {
		c.LicenseStatus = *dto.LicenseStatus
	}
	if dto.InternalNotes != nil {
		c.InternalNotes = *dto.InternalNotes
	}
	if dto.IsActive != nil {
		c.IsActive = *dto.IsActive
	}
	if dto.ClinicAdminID != nil {
		c.ClinicAdminID = dto.ClinicAdminID
	}

	if err := s.repo.Update(c); err != nil {
		s.logger.Error("clinic update failed", "error", err, "clinic_id", id)
		return nil, err
	}

	view := c.ToView(s.seesInternal(actor))
	return &view, nil
}

func (s *Service) DeleteClinic(actor *accesscontrol.Actor, id int64) error {
	if !accesscontrol.CanPerform(actor, accesscontrol.ActionDelete, accesscontrol.EntityClinic) {
		return internal.ErrPermissionDenied
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.logger.Info("clinic deleted", "clinic_id", id, "deleted_by", actor.UserID)
	return nil
}

func (s *Service) seesInternal(actor *accesscontrol.Actor) bool {
	return actor != nil && (actor.IsSuperuser || actor.Role == identity.RoleSystemAdmin)
}

func (s *Service) publishProvisioned(ctx context.Context, result *provisioning.Result) {
	if result == nil || s.eventBus == nil {
		return
	}
	event := events.NewUserProvisionedEvent(result.UserID, result.Email, result.FirstName, string(result.Role), result.TempPassword)
	// The request context is cancelled once the handler returns; mail
	// dispatch must outlive it.
	if err := s.eventBus.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("failed to publish provisioning event", "error", err, "user_id", result.UserID)
	}
}
