package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
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
			message:  "combatant not found",
			expected: "NOT_FOUND: combatant not found",
		},
		{
			name:     "invalid argument error",
			code:     errors.CodeInvalidArgument,
			message:  "damage must not be negative",
			expected: "INVALID_ARGUMENT: damage must not be negative",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := errors.New(tc.code, tc.message)
			s.Equal(tc.expected, err.Error())
			s.Equal(tc.code, err.Code)
			s.Equal(tc.message, err.Message)
		})
	}
}

func (s *ErrorsTestSuite) TestWrapPreservesCodeAndMeta() {
	baseErr := errors.NotFound("record not found").WithMeta("combatant_id", "c_1")
	wrapped := errors.Wrap(baseErr, "combatant not found")

	s.Equal(errors.CodeNotFound, wrapped.Code)
	s.Equal("combatant not found", wrapped.Message)
	s.Equal(baseErr, wrapped.Unwrap())
	s.Equal("c_1", wrapped.Meta["combatant_id"])
}

func (s *ErrorsTestSuite) TestWrapPlainErrorIsInternal() {
	baseErr := fmt.Errorf("disk full")
	wrapped := errors.Wrap(baseErr, "failed to save")

	s.Equal(errors.CodeInternal, wrapped.Code)
	s.Equal(baseErr, wrapped.Unwrap())
	s.Nil(errors.Wrap(nil, "should be nil"))
	s.Nil(errors.WrapWithCode(nil, errors.CodeNotFound, "should be nil"))
}

func (s *ErrorsTestSuite) TestInvalidTransition() {
	err := errors.InvalidTransition("encounter has ended")

	s.True(errors.IsInvalidTransition(err))
	s.True(errors.IsFailedPrecondition(err))
	s.True(errors.IsInvalidTransition(errors.Wrap(err, "next turn")))
	s.False(errors.IsInvalidTransition(errors.FailedPrecondition("no slots remaining")))
	s.False(errors.IsInvalidTransition(errors.NotFound("missing")))
	s.False(errors.IsInvalidTransition(nil))
}

func (s *ErrorsTestSuite) TestPersistenceFailed() {
	cause := fmt.Errorf("connection refused")
	err := errors.PersistenceFailed(cause, "combatant", "c_7")

	s.True(errors.IsUnavailable(err))
	s.Equal("combatant", err.Meta["record_kind"])
	s.Equal("c_7", err.Meta["record_id"])
	s.ErrorIs(err, cause)
	s.Nil(errors.PersistenceFailed(nil, "combatant", "c_7"))
}

func (s *ErrorsTestSuite) TestErrorIs() {
	err1 := errors.NotFound("a")
	err2 := errors.NotFound("b")
	err3 := errors.InvalidArgument("a")

	s.True(err1.Is(err2))
	s.False(err1.Is(err3))
}

func (s *ErrorsTestSuite) TestGetters() {
	err := errors.NotFound("user friendly message").WithMeta("key", "value")
	wrapped := errors.Wrap(err, "wrapped message")
	stdErr := fmt.Errorf("standard error")

	s.Equal(errors.CodeNotFound, errors.GetCode(wrapped))
	s.Equal(errors.CodeInternal, errors.GetCode(stdErr))
	s.Equal(errors.CodeOK, errors.GetCode(nil))

	s.Equal("value", errors.GetMeta(wrapped)["key"])
	s.Nil(errors.GetMeta(stdErr))

	s.Equal("wrapped message", errors.GetMessage(wrapped))
	s.Equal("standard error", errors.GetMessage(stdErr))
}

func (s *ErrorsTestSuite) TestGRPCRoundTrip() {
	err := errors.InvalidTransition("encounter has ended").WithMeta("encounter_id", "enc_1")

	grpcErr := errors.ToGRPCError(err)
	st, ok := status.FromError(grpcErr)
	s.Require().True(ok)
	s.Equal(codes.FailedPrecondition, st.Code())
	s.Equal("encounter has ended", st.Message())

	back := errors.FromGRPCError(grpcErr)
	s.True(errors.IsInvalidTransition(back))
	s.Equal("enc_1", errors.GetMeta(back)["encounter_id"])
}

func (s *ErrorsTestSuite) TestFromPlainGRPCStatus() {
	err := errors.FromGRPCError(status.Error(codes.InvalidArgument, "invalid input"))
	s.Equal(errors.CodeInvalidArgument, errors.GetCode(err))
	s.Equal("invalid input", errors.GetMessage(err))
}

func (s *ErrorsTestSuite) TestGRPCCodeMapping() {
	testCases := []struct {
		code     errors.Code
		expected codes.Code
	}{
		{errors.CodeNotFound, codes.NotFound},
		{errors.CodeInvalidArgument, codes.InvalidArgument},
		{errors.CodeFailedPrecondition, codes.FailedPrecondition},
		{errors.CodeInternal, codes.Internal},
		{errors.CodeUnavailable, codes.Unavailable},
	}

	for _, tc := range testCases {
		s.Run(string(tc.code), func() {
			s.Equal(tc.expected, tc.code.GRPCCode())
		})
	}
}
