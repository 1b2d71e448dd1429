package errors

import (
	"fmt"
	"strings"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
)

const (
	CodeScrimNotFound         = "SCRIM_NOT_FOUND"
	CodeScrimAlreadyActive    = "SCRIM_ALREADY_ACTIVE"
	CodeInvalidRosterSize     = "INVALID_ROSTER_SIZE"
	CodeDuplicateRosterMember = "DUPLICATE_ROSTER_MEMBER"
	CodeDuplicateTeamName     = "DUPLICATE_TEAM_NAME"
	CodePlayerAlreadyRostered = "PLAYER_ALREADY_ROSTERED"
	CodeMissingStatsLink      = "MISSING_STATS_LINK"
	CodePlayerBanned          = "PLAYER_BANNED"
	CodeNotAuthorized         = "NOT_AUTHORIZED"
	CodeRosterLocked          = "ROSTER_LOCKED"
	CodeTeamNameTaken         = "TEAM_NAME_TAKEN"
	CodeTeamNotFound          = "TEAM_NOT_FOUND"
	CodePlayerNotOnTeam       = "PLAYER_NOT_ON_TEAM"
	CodePersistenceFailure    = "PERSISTENCE_FAILURE"
	CodeAnnouncementFailed    = "ANNOUNCEMENT_FAILED"
)

func ScrimNotFound(channelId string) *apperrors.AppError {
	return apperrors.New(CodeScrimNotFound,
		fmt.Sprintf("no active scrim in channel %s", channelId)).
		WithField("channel_id", channelId)
}

func ScrimAlreadyActive(channelId string) *apperrors.AppError {
	return apperrors.New(CodeScrimAlreadyActive,
		fmt.Sprintf("channel %s already has an active scrim", channelId)).
		WithField("channel_id", channelId)
}

func InvalidRosterSize(got int) *apperrors.AppError {
	return apperrors.New(CodeInvalidRosterSize,
		fmt.Sprintf("a team needs exactly 3 players, got %d", got)).
		WithField("size", got)
}

func DuplicateRosterMember() *apperrors.AppError {
	return apperrors.New(CodeDuplicateRosterMember, "the same player is listed more than once")
}

func DuplicateTeamName(teamName string) *apperrors.AppError {
	return apperrors.New(CodeDuplicateTeamName,
		fmt.Sprintf("a team named %q is already signed up", teamName)).
		WithField("team", teamName)
}

func PlayerAlreadyRostered(player, teamName string) *apperrors.AppError {
	return apperrors.New(CodePlayerAlreadyRostered,
		fmt.Sprintf("%s is already signed up with %s", player, teamName)).
		WithField("player", player).
		WithField("team", teamName)
}

func MissingStatsLink(player string) *apperrors.AppError {
	return apperrors.New(CodeMissingStatsLink,
		fmt.Sprintf("%s has not linked a stats account", player)).
		WithField("player", player)
}

func PlayerBanned(reasons []string) *apperrors.AppError {
	return apperrors.New(CodePlayerBanned,
		fmt.Sprintf("banned: %s", strings.Join(reasons, "; "))).
		WithField("reasons", reasons)
}

func NotAuthorized() *apperrors.AppError {
	return apperrors.New(CodeNotAuthorized, "you are not allowed to do that")
}

func RosterLocked() *apperrors.AppError {
	return apperrors.New(CodeRosterLocked, "rosters are locked for this scrim")
}

func TeamNameTaken(teamName string) *apperrors.AppError {
	return apperrors.New(CodeTeamNameTaken,
		fmt.Sprintf("team name %q is taken", teamName)).
		WithField("team", teamName)
}

func TeamNotFound(teamName string) *apperrors.AppError {
	return apperrors.New(CodeTeamNotFound,
		fmt.Sprintf("no team named %q in this scrim", teamName)).
		WithField("team", teamName)
}

func PlayerNotOnTeam(player, teamName string) *apperrors.AppError {
	return apperrors.New(CodePlayerNotOnTeam,
		fmt.Sprintf("%s is not on %s", player, teamName)).
		WithField("player", player).
		WithField("team", teamName)
}

// PersistenceFailure keeps the collaborator's error as the cause, unmodified.
func PersistenceFailure(cause error) *apperrors.AppError {
	return apperrors.Wrap(cause, CodePersistenceFailure, "storage operation failed")
}

func AnnouncementFailure(cause error) *apperrors.AppError {
	return apperrors.Wrap(cause, CodeAnnouncementFailed, "change was saved but could not be announced")
}

func InvalidInput(message string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput, message)
}
