package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"chatventure.world/internal/errors"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) TestNewError() {
	testCases := []struct {
		name     string
		code     errors.Code
		message  string
		expected string
	}{
		{
			name:     "not found error",
			code:     errors.CodeNotFound,
			message:  "chatventure not found",
			expected: "NOT_FOUND: chatventure not found",
		},
		{
			name:     "validation error",
			code:     errors.CodeValidation,
			message:  "name already taken",
			expected: "VALIDATION: name already taken",
		},
		{
			name:     "data integrity error",
			code:     errors.CodeDataIntegrity,
			message:  "amp references unknown stat",
			expected: "DATA_INTEGRITY: amp references unknown stat",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := errors.New(tc.code, tc.message)
			s.Assert().Equal(tc.expected, err.Error())
			s.Assert().Equal(tc.code, err.Code)
			s.Assert().Equal(tc.message, err.Message)
		})
	}
}

func (s *ErrorsTestSuite) TestErrorWithMeta() {
	err := errors.NotFound("struct not found").
		WithMeta("struct_id", "perimeter").
		WithMeta("township", "Zenithica")

	s.Assert().Equal("perimeter", err.Meta["struct_id"])
	s.Assert().Equal("Zenithica", err.Meta["township"])
}

func (s *ErrorsTestSuite) TestWrapPreservesCode() {
	inner := errors.JoinDenied("chatventure is full")
	wrapped := errors.Wrap(inner, "failed to join")

	s.Assert().Equal(errors.CodeJoinDenied, wrapped.Code)
	s.Assert().Equal("failed to join", wrapped.Message)
	s.Assert().True(errors.IsJoinDenied(wrapped))
}

func (s *ErrorsTestSuite) TestWrapPlainError() {
	wrapped := errors.Wrap(fmt.Errorf("disk full"), "save failed")

	s.Assert().Equal(errors.CodeInternal, wrapped.Code)
	s.Assert().ErrorContains(wrapped, "disk full")
}

func (s *ErrorsTestSuite) TestGetCode() {
	s.Assert().Equal(errors.CodeOK, errors.GetCode(nil))
	s.Assert().Equal(errors.CodeForbidden, errors.GetCode(errors.Forbidden("creator only")))
	s.Assert().Equal(errors.CodeInternal, errors.GetCode(fmt.Errorf("plain")))
}

func (s *ErrorsTestSuite) TestTypeCheckers() {
	s.Assert().True(errors.IsValidation(errors.Validation("bad name")))
	s.Assert().True(errors.IsNotFound(errors.NotFoundf("no soul named %q", "ari")))
	s.Assert().True(errors.IsInvalidOption(errors.InvalidOption("no such option")))
	s.Assert().True(errors.IsInvalidToken(errors.InvalidToken("expired")))
	s.Assert().True(errors.IsDataIntegrity(errors.DataIntegrityf("missing handler %q", "visit")))
	s.Assert().False(errors.IsNotFound(errors.Validation("bad name")))
}
