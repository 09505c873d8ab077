package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingContact   ErrorCode = "MISSING_CONTACT_INFO"
	ErrCodePasswordTooShort ErrorCode = "PASSWORD_TOO_SHORT"
	ErrCodePasswordMismatch ErrorCode = "PASSWORD_MISMATCH"
	ErrCodeClinicMismatch   ErrorCode = "CLINIC_MISMATCH"

	ErrCodeClinicNotFound     ErrorCode = "CLINIC_NOT_FOUND"
	ErrCodeTherapistNotFound  ErrorCode = "THERAPIST_NOT_FOUND"
	ErrCodeParentNotFound     ErrorCode = "PARENT_NOT_FOUND"
	ErrCodeChildNotFound      ErrorCode = "CHILD_NOT_FOUND"
	ErrCodeGoalNotFound       ErrorCode = "GOAL_NOT_FOUND"
	ErrCodeTaskNotFound       ErrorCode = "TASK_NOT_FOUND"
	ErrCodeAssignmentNotFound ErrorCode = "ASSIGNMENT_NOT_FOUND"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"

	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	ErrCodeEmailAlreadyRegistered ErrorCode = "EMAIL_ALREADY_REGISTERED"
	ErrCodeProvisioningFailed     ErrorCode = "PROVISIONING_FAILED"
	ErrCodeNotificationFailed     ErrorCode = "NOTIFICATION_FAILED"

	ErrCodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountDisabled     ErrorCode = "ACCOUNT_DISABLED"
	ErrCodeInvalidTempPassword ErrorCode = "INVALID_TEMP_PASSWORD"
	ErrCodeInvalidToken        ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrPermissionDenied = NewForbiddenError("you do not have permission to perform this action", ErrCodePermissionDenied)

	ErrClinicNotFound     = NewNotFoundError("clinic not found", ErrCodeClinicNotFound)
	ErrTherapistNotFound  = NewNotFoundError("therapist not found", ErrCodeTherapistNotFound)
	ErrParentNotFound     = NewNotFoundError("client not found", ErrCodeParentNotFound)
	ErrChildNotFound      = NewNotFoundError("child not found", ErrCodeChildNotFound)
	ErrGoalNotFound       = NewNotFoundError("goal not found", ErrCodeGoalNotFound)
	ErrTaskNotFound       = NewNotFoundError("task not found", ErrCodeTaskNotFound)
	ErrAssignmentNotFound = NewNotFoundError("assignment not found", ErrCodeAssignmentNotFound)
	ErrUserNotFound       = NewNotFoundError("user not found", ErrCodeUserNotFound)

	ErrEmailAlreadyRegistered = NewConflictError("email is already registered", ErrCodeEmailAlreadyRegistered)

	ErrInvalidCredentials  = NewUnauthorizedError("invalid email or password", ErrCodeInvalidCredentials)
	ErrAccountDisabled     = NewForbiddenError("your account is disabled", ErrCodeAccountDisabled)
	ErrInvalidTempPassword = NewUnauthorizedError("invalid temporary password", ErrCodeInvalidTempPassword)
	ErrInvalidToken        = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired        = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
