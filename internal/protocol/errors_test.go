package protocol

import (
	"testing"

	"chatventure.world/internal/errors"
)

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrValidation,
		ErrNotFound,
		ErrForbidden,
		ErrJoinDenied,
		ErrInvalidOption,
		ErrInvalidToken,
		ErrDataIntegrity,
		ErrRateLimit,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestWireCode(t *testing.T) {
	cases := []struct {
		code errors.Code
		want string
	}{
		{errors.CodeOK, ""},
		{errors.CodeValidation, ErrValidation},
		{errors.CodeNotFound, ErrNotFound},
		{errors.CodeForbidden, ErrForbidden},
		{errors.CodeJoinDenied, ErrJoinDenied},
		{errors.CodeInvalidOption, ErrInvalidOption},
		{errors.CodeInvalidToken, ErrInvalidToken},
		{errors.CodeDataIntegrity, ErrDataIntegrity},
		{errors.CodeRateLimit, ErrRateLimit},
		{errors.CodeInternal, ErrInternal},
		{errors.Code("SOMETHING_ELSE"), ErrInternal},
	}
	for _, c := range cases {
		if got := WireCode(c.code); got != c.want {
			t.Fatalf("WireCode(%s) = %q, want %q", c.code, got, c.want)
		}
	}
	for _, c := range cases {
		if !IsKnownCode(WireCode(c.code)) {
			t.Fatalf("WireCode(%s) not a known code", c.code)
		}
	}
}
