package errors

import "errors"

// As is a wrapper around errors.As that works with our Error type.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// Is checks if an error matches a target error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	if err == nil {
		return CodeOK
	}
	var custom *Error
	if errors.As(err, &custom) {
		return custom.Code
	}
	return CodeInternal
}

// GetMessage extracts the user-facing message from an error.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var custom *Error
	if errors.As(err, &custom) {
		return custom.Message
	}
	return err.Error()
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return GetCode(err) == CodeValidation
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return GetCode(err) == CodeNotFound
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return GetCode(err) == CodeForbidden
}

// IsJoinDenied checks if an error is a join-denied error.
func IsJoinDenied(err error) bool {
	return GetCode(err) == CodeJoinDenied
}

// IsInvalidOption checks if an error is an invalid-option error.
func IsInvalidOption(err error) bool {
	return GetCode(err) == CodeInvalidOption
}

// IsInvalidToken checks if an error is an invalid-token error.
func IsInvalidToken(err error) bool {
	return GetCode(err) == CodeInvalidToken
}

// IsDataIntegrity checks if an error is a data-integrity error.
func IsDataIntegrity(err error) bool {
	return GetCode(err) == CodeDataIntegrity
}
