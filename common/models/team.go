package models

import (
	"fmt"
	"time"
)

const RosterSize = 3

type Team struct {
	TeamId          string    `dynamodbav:"team_id" json:"teamId"`
	ScrimId         string    `dynamodbav:"scrim_id" json:"scrimId"`
	TeamName        string    `dynamodbav:"team_name" json:"teamName"`
	SignupPlayer    Player    `dynamodbav:"signup_player" json:"signupPlayer"`
	Players         []Player  `dynamodbav:"players" json:"players"`
	SignupTimestamp time.Time `dynamodbav:"signup_timestamp" json:"signupTimestamp"`

	// Derived on read, never stored.
	ResolvedPriority *Priority `dynamodbav:"-" json:"priority,omitempty"`

	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"-"`
}

// HasPlayer reports whether externalId is on the roster (not the captain).
func (t *Team) HasPlayer(externalId string) bool {
	for _, p := range t.Players {
		if p.ExternalId == externalId {
			return true
		}
	}
	return false
}

// IsMember reports whether externalId signed the team up or plays on it.
func (t *Team) IsMember(externalId string) bool {
	return t.SignupPlayer.ExternalId == externalId || t.HasPlayer(externalId)
}

type TeamField string

const (
	TeamFieldName    TeamField = "team_name"
	TeamFieldPlayers TeamField = "players"
)

// Key handlers

func TeamSKPrefix() string {
	return "TEAM#"
}

func TeamSK(teamId string) string {
	return fmt.Sprintf("TEAM#%s", teamId)
}
