package protocol

import "chatventure.world/internal/errors"

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Engine rejection taxonomy.
	ErrValidation    = "E_VALIDATION"
	ErrNotFound      = "E_NOT_FOUND"
	ErrForbidden     = "E_FORBIDDEN"
	ErrJoinDenied    = "E_JOIN_DENIED"
	ErrInvalidOption = "E_INVALID_OPTION"
	ErrInvalidToken  = "E_INVALID_TOKEN"
	ErrDataIntegrity = "E_DATA_INTEGRITY"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrValidation:      {},
	ErrNotFound:        {},
	ErrForbidden:       {},
	ErrJoinDenied:      {},
	ErrInvalidOption:   {},
	ErrInvalidToken:    {},
	ErrDataIntegrity:   {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// WireCode translates an engine error code into its wire string.
func WireCode(code errors.Code) string {
	switch code {
	case errors.CodeOK:
		return ""
	case errors.CodeValidation:
		return ErrValidation
	case errors.CodeNotFound:
		return ErrNotFound
	case errors.CodeForbidden:
		return ErrForbidden
	case errors.CodeJoinDenied:
		return ErrJoinDenied
	case errors.CodeInvalidOption:
		return ErrInvalidOption
	case errors.CodeInvalidToken:
		return ErrInvalidToken
	case errors.CodeDataIntegrity:
		return ErrDataIntegrity
	case errors.CodeRateLimit:
		return ErrRateLimit
	default:
		return ErrInternal
	}
}
