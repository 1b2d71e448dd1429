package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	signuperrors "github.com/burakmert236/scrimsignups/services/signup-service/internal/errors"
)

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrResponse struct {
	Error APIError `json:"error"`
}

var (
	BadRequest = APIError{
		Code:    apperrors.CodeInvalidInput,
		Message: "invalid request body",
	}
	MissingActor = APIError{
		Code:    apperrors.CodeInvalidInput,
		Message: "X-Actor-Id header is required",
	}
	Unauthorized = APIError{
		Code:    apperrors.CodeUnauthorized,
		Message: "unauthorized request",
	}
	InternalServerError = APIError{
		Code:    apperrors.CodeInternalServer,
		Message: "internal server error",
	}
)

var statusByCode = map[string]int{
	signuperrors.CodeScrimNotFound: http.StatusNotFound,
	signuperrors.CodeTeamNotFound:  http.StatusNotFound,
	apperrors.CodeNotFound:         http.StatusNotFound,

	signuperrors.CodeInvalidRosterSize:     http.StatusBadRequest,
	signuperrors.CodeDuplicateRosterMember: http.StatusBadRequest,
	signuperrors.CodeMissingStatsLink:      http.StatusBadRequest,
	apperrors.CodeInvalidInput:             http.StatusBadRequest,

	signuperrors.CodeDuplicateTeamName:     http.StatusConflict,
	signuperrors.CodePlayerAlreadyRostered: http.StatusConflict,
	signuperrors.CodeTeamNameTaken:         http.StatusConflict,
	signuperrors.CodeScrimAlreadyActive:    http.StatusConflict,
	signuperrors.CodePlayerNotOnTeam:       http.StatusConflict,
	apperrors.CodeConflict:                 http.StatusConflict,

	signuperrors.CodePlayerBanned:  http.StatusForbidden,
	signuperrors.CodeNotAuthorized: http.StatusForbidden,
	signuperrors.CodeRosterLocked:  http.StatusForbidden,

	apperrors.CodeUnauthorized: http.StatusUnauthorized,

	signuperrors.CodePersistenceFailure: http.StatusServiceUnavailable,
	apperrors.CodeServiceUnavailable:    http.StatusServiceUnavailable,
}

// Map reports the status and body for err. ok is false for errors that carry
// no known code; those are answered with a generic 500.
func Map(err error) (status int, apiErr APIError, ok bool) {
	appErr, isApp := apperrors.As(err)
	if !isApp {
		return http.StatusInternalServerError, InternalServerError, false
	}

	status, known := statusByCode[appErr.Code]
	if !known {
		return http.StatusInternalServerError, InternalServerError, false
	}

	return status, toAPIError(appErr), true
}

func toAPIError(appErr *apperrors.AppError) APIError {
	return APIError{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Fields,
	}
}

// announcementWarning turns an AnnouncementFailure into the warning attached
// to an otherwise successful response.
func announcementWarning(err error) (*APIError, bool) {
	if !apperrors.HasCode(err, signuperrors.CodeAnnouncementFailed) {
		return nil, false
	}
	appErr, _ := apperrors.As(err)
	warning := toAPIError(appErr)
	return &warning, true
}

func WriteAPIErrJSON(c *gin.Context, status int, apiErr APIError) {
	c.AbortWithStatusJSON(status, ErrResponse{Error: apiErr})
}
