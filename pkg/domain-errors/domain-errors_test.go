package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: these are core error primitives used at every trust boundary.
// Unit tests ensure invariants like "wrapped domain errors preserve original code"
// and "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeAlreadyIssued, Message: "credential exists for pair"}
		s.Equal("credential exists for pair", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeTransferNotAllowed}
		s.Equal("transfer_not_allowed", err.Error())
	})
}

func (s *DomainErrorsSuite) TestWrapPreservesOriginalCode() {
	inner := New(CodeAlreadyIssued, "credential exists")
	wrapped := Wrap(inner, CodeInternal, "issue failed")

	s.True(HasCode(wrapped, CodeAlreadyIssued), "wrapping must not mask the protocol error kind")
	s.False(HasCode(wrapped, CodeInternal))
}

func (s *DomainErrorsSuite) TestWrapNonDomainError() {
	inner := errors.New("connection refused")
	wrapped := Wrap(inner, CodeInternal, "store unavailable")

	s.True(HasCode(wrapped, CodeInternal))
	s.ErrorIs(wrapped, inner)
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	err1 := New(CodeVerificationFailed, "engine rejected proof")
	err2 := New(CodeVerificationFailed, "malformed proof envelope")

	s.ErrorIs(err1, err2)
	s.NotErrorIs(err1, New(CodeInvalidSettings, ""))
}

func (s *DomainErrorsSuite) TestHasCodeThroughFmtWrapping() {
	err := fmt.Errorf("claim aborted: %w", New(CodeAlreadySet, "verification target already set"))
	s.True(HasCode(err, CodeAlreadySet))
	s.False(HasCode(errors.New("plain"), CodeAlreadySet))
	s.False(HasCode(nil, CodeAlreadySet))
}
