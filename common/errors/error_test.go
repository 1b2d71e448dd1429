package errors_test

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/stretchr/testify/require"
)

func TestWrap_NilStaysNil(t *testing.T) {
	require.Nil(t, apperrors.Wrap(nil, apperrors.CodeDatabaseError, "ignored"))
}

func TestWrap_KeepsCauseInChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("outer: %w", apperrors.Wrap(cause, apperrors.CodeDatabaseError, "query failed"))

	require.ErrorIs(t, err, cause)
	require.True(t, apperrors.HasCode(err, apperrors.CodeDatabaseError))
	require.Equal(t, apperrors.CodeDatabaseError, apperrors.CodeOf(err))
	require.Contains(t, err.Error(), "connection reset")
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, "", apperrors.CodeOf(nil))
	require.Equal(t, apperrors.CodeInternalServer, apperrors.CodeOf(errors.New("plain")))
}

func TestWithField(t *testing.T) {
	err := apperrors.New(apperrors.CodeConflict, "taken").WithField("team", "Fineapples")
	require.Equal(t, "Fineapples", err.Fields["team"])
}
