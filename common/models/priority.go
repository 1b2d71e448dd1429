package models

import "time"

// Priority is the resolved standing of a player or a team. Amount is one of -1, 0, +1
// once resolved to a team.
type Priority struct {
	Amount  int    `json:"amount"`
	Reasons string `json:"reasons"`
}

type PriorityEntry struct {
	PriorityId  string    `gorm:"column:priority_id;primaryKey" json:"priorityId"`
	ExternalId  string    `gorm:"column:external_id;index;not null" json:"externalId"`
	DisplayName string    `gorm:"column:display_name" json:"displayName"`
	StartDate   time.Time `gorm:"column:start_date;index;not null" json:"startDate"`
	EndDate     time.Time `gorm:"column:end_date;index;not null" json:"endDate"`
	Amount      int       `gorm:"column:amount;not null" json:"amount"`
	Reason      string    `gorm:"column:reason;not null" json:"reason"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (PriorityEntry) TableName() string {
	return "priority_entries"
}

// Covers reports whether the entry's window contains at (bounds inclusive).
func (e PriorityEntry) Covers(at time.Time) bool {
	return !e.StartDate.After(at) && !e.EndDate.Before(at)
}

type Signups struct {
	Scrim    *Scrim `json:"scrim"`
	MainList []Team `json:"mainList"`
	WaitList []Team `json:"waitList"`
}
