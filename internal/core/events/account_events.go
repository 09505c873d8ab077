package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserProvisioned = "account.user_provisioned"
)

// UserProvisionedEvent fires after the transaction creating a user
// account commits. The temporary password rides on the event so the
// welcome message can include it; it is never persisted in clear.
type UserProvisionedEvent struct {
	BaseEvent
	UserID       int64  `json:"user_id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	Role         string `json:"role"`
	TempPassword string `json:"-"`
}

func NewUserProvisionedEvent(userID int64, email, firstName, role, tempPassword string) *UserProvisionedEvent {
	return &UserProvisionedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserProvisioned,
			Timestamp: time.Now(),
		},
		UserID:       userID,
		Email:        email,
		FirstName:    firstName,
		Role:         role,
		TempPassword: tempPassword,
	}
}
