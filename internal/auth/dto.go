package auth

import "github.com/Captainsparrow404/neuvii-backend/internal"

const minPasswordLength = 8

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	if d.Email == "" {
		return internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed)
	}
	if d.Password == "" {
		return internal.NewValidationFieldError("password", "password is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return internal.NewValidationFieldError("refresh_token", "refresh_token is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// ResetPasswordDTO completes the first-login flow using the temporary
// credential from the welcome message.
type ResetPasswordDTO struct {
	Email           string `json:"email"`
	TempPassword    string `json:"temp_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (d ResetPasswordDTO) Validate() error {
	if d.Email == "" {
		return internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed)
	}
	if d.TempPassword == "" {
		return internal.NewValidationFieldError("temp_password", "temporary password is required", internal.ErrCodeValidationFailed)
	}
	return validateNewPassword(d.NewPassword, d.ConfirmPassword)
}

type ChangePasswordDTO struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (d ChangePasswordDTO) Validate() error {
	return validateNewPassword(d.NewPassword, d.ConfirmPassword)
}

func validateNewPassword(newPassword, confirm string) error {
	if len(newPassword) < minPasswordLength {
		return internal.NewValidationFieldError("new_password", "password must be at least 8 characters", internal.ErrCodePasswordTooShort)
	}
	if newPassword != confirm {
		return internal.NewValidationFieldError("confirm_password", "passwords do not match", internal.ErrCodePasswordMismatch)
	}
	return nil
}
