package models

import (
	"fmt"
	"time"
)

type Scrim struct {
	ScrimId       string    `dynamodbav:"scrim_id" json:"scrimId"`
	ChannelId     string    `dynamodbav:"channel_id" json:"channelId"`
	ScheduledTime time.Time `dynamodbav:"scheduled_time" json:"scheduledTime"`
	Active        bool      `dynamodbav:"active" json:"active"`
	ComputedSkill *float64  `dynamodbav:"computed_skill,omitempty" json:"computedSkill,omitempty"`
	StatsLinkage  string    `dynamodbav:"stats_linkage,omitempty" json:"statsLinkage,omitempty"`
	CreatedAt     time.Time `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `dynamodbav:"updated_at" json:"updatedAt"`

	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"-"`

	// Only active scrims carry GSI1 attributes, which keeps the index sparse.
	GSI1PK string `dynamodbav:"GSI1PK,omitempty" json:"-"`
	GSI1SK string `dynamodbav:"GSI1SK,omitempty" json:"-"`
}

// RosterLocksAt is the instant after which non-elevated roster edits are refused.
func (s *Scrim) RosterLocksAt(lead time.Duration) time.Time {
	return s.ScheduledTime.Add(-lead)
}

// ChannelGuard enforces one active scrim per channel: it is written in the same
// transaction as the scrim and deleted when the scrim is closed.
type ChannelGuard struct {
	ChannelId string `dynamodbav:"channel_id"`
	ScrimId   string `dynamodbav:"scrim_id"`

	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
}

// Key handlers

func ScrimPK(scrimId string) string {
	return fmt.Sprintf("SCRIM#%s", scrimId)
}

func MetaSK() string {
	return "META"
}

func ActiveScrimsGSI1PK() string {
	return "SCRIM_STATUS#ACTIVE"
}

func ActiveScrimGSI1SK(scheduled time.Time, scrimId string) string {
	return fmt.Sprintf("SCHEDULED#%s#%s", scheduled.UTC().Format(time.RFC3339), scrimId)
}

func ChannelPK(channelId string) string {
	return fmt.Sprintf("CHANNEL#%s", channelId)
}

func ActiveScrimSK() string {
	return "ACTIVE_SCRIM"
}
