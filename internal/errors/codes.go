package errors

// Code represents a stable error code.
type Code string

const (
	CodeOK Code = "OK"

	// CodeValidation rejects malformed or duplicate creation input
	// before any mutation happens.
	CodeValidation Code = "VALIDATION"

	// CodeNotFound marks an unknown struct/chatventure/entity reference.
	CodeNotFound Code = "NOT_FOUND"

	// CodeForbidden marks an option restricted by role.
	CodeForbidden Code = "FORBIDDEN"

	// CodeJoinDenied marks a capacity or join-rule violation.
	CodeJoinDenied Code = "JOIN_DENIED"

	// CodeInvalidOption marks an option key absent from the current set.
	CodeInvalidOption Code = "INVALID_OPTION"

	// CodeInvalidToken marks a session token that failed verification.
	CodeInvalidToken Code = "INVALID_TOKEN"

	// CodeDataIntegrity marks a blueprint referencing a stat or handler
	// that does not exist. Fatal to the operation, logged, never patched.
	CodeDataIntegrity Code = "DATA_INTEGRITY"

	// CodeRateLimit marks a chat/action rate window violation.
	CodeRateLimit Code = "RATE_LIMIT"

	CodeInternal Code = "INTERNAL"
)

// String returns the string representation of the code.
func (c Code) String() string {
	return string(c)
}
