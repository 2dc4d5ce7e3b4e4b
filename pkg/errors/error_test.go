package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInsufficientFunds, "cannot afford %d shares of %s", 100, "600519")
	suite.NotNil(err)
	suite.Equal(ErrCodeInsufficientFunds, err.Code)
	suite.Equal("cannot afford 100 shares of 600519", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "query failed", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Equal("query failed", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataNotFound, cause, "no bars for symbol: %s", "000001")
	suite.NotNil(err)
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("no bars for symbol: 000001", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInsufficientPosition, "not enough shares")
	suite.Equal("[401] not enough shares", err.Error())

	wrapped := Wrap(ErrCodeExecutionFailed, "sell failed", err)
	suite.Equal(fmt.Sprintf("[402] sell failed: %v", err), wrapped.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("root cause")
	err := Wrap(ErrCodeExecutionFailed, "execution failed", cause)
	suite.Equal(cause, errors.Unwrap(err))
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeStrategyNotImplemented, "decide is not implemented")
	suite.Equal(ErrCodeStrategyNotImplemented, GetCode(err))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain error")))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeStrategyNotImplemented, "decide is not implemented")
	suite.True(HasCode(err, ErrCodeStrategyNotImplemented))
	suite.False(HasCode(err, ErrCodeInsufficientFunds))

	wrapped := fmt.Errorf("run failed: %w", err)
	suite.True(HasCode(wrapped, ErrCodeStrategyNotImplemented))
}
