package errors

import (
	stderrors "errors"
	"net/http"
)

const (
	CodeInvalidPhaseCount   = "invalid_phase_count"
	CodePhaseCountRequired  = "phase_count_required"
	CodeSkipNotEnabled      = "skip_not_enabled"
	CodeLongBreakSkip       = "long_break_skip_not_allowed"
	CodeInvalidLocation     = "invalid_location"
	CodeInternal            = "internal_error"
	CodeUnauthorized        = "unauthorized"
	CodeAuthDisabled        = "auth_disabled"
	CodeInvalidRequestBody  = "invalid_json"
	CodeUnknownAction       = "unknown_action"
	invalidPhaseCountText   = "number of phases must be a positive integer"
	phaseCountRequiredText  = "enter the number of phases to skip"
	skipNotEnabledText      = "skipping a work phase is only allowed right after a phase finished"
	longBreakSkipText       = "skipping into a long break is not allowed"
	internalServerErrorText = "internal server error"
)

type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = internalServerErrorText
	}
	return New(http.StatusInternalServerError, CodeInternal, message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(code, message string) *APIError {
	if message == "" {
		message = "forbidden"
	}
	return New(http.StatusForbidden, code, message)
}

func InvalidPhaseCount() *APIError {
	return BadRequest(CodeInvalidPhaseCount, invalidPhaseCountText)
}

// PhaseCountRequired asks the caller to prompt for a count and retry.
func PhaseCountRequired() *APIError {
	return BadRequest(CodePhaseCountRequired, phaseCountRequiredText)
}

func SkipNotEnabled() *APIError {
	return Forbidden(CodeSkipNotEnabled, skipNotEnabledText)
}

func LongBreakSkip() *APIError {
	return Forbidden(CodeLongBreakSkip, longBreakSkipText)
}

// HasCode reports whether err is an *APIError carrying code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) || apiErr == nil {
		return false
	}
	return apiErr.Code == code
}

func IsValidation(err error) bool {
	return HasCode(err, CodeInvalidPhaseCount) || HasCode(err, CodePhaseCountRequired)
}

func IsAuthorization(err error) bool {
	return HasCode(err, CodeSkipNotEnabled) || HasCode(err, CodeLongBreakSkip)
}
