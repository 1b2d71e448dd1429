package models

import "fmt"

type Player struct {
	PlayerId    string `dynamodbav:"player_id" json:"playerId"`
	ExternalId  string `dynamodbav:"external_id" json:"externalId"`
	DisplayName string `dynamodbav:"display_name" json:"displayName"`
	StatsLinkId string `dynamodbav:"stats_link_id,omitempty" json:"statsLinkId,omitempty"`
	Elo         *int   `dynamodbav:"elo,omitempty" json:"elo,omitempty"`
}

func (p Player) HasStatsLink() bool {
	return p.StatsLinkId != ""
}

// Profiles are stored under PlayerPK/ProfileSK but the key attributes are not
// mapped onto Player, since the same struct is embedded in team items.

// Key handlers

func PlayerPK(externalId string) string {
	return fmt.Sprintf("PLAYER#%s", externalId)
}

func ProfileSK() string {
	return "PROFILE"
}
