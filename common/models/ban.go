package models

import "time"

type BanEntry struct {
	BanId      string    `gorm:"column:ban_id;primaryKey" json:"banId"`
	ExternalId string    `gorm:"column:external_id;index;not null" json:"externalId"`
	StartDate  time.Time `gorm:"column:start_date;not null" json:"startDate"`
	EndDate    time.Time `gorm:"column:end_date;not null" json:"endDate"`
	Reason     string    `gorm:"column:reason" json:"reason"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (BanEntry) TableName() string {
	return "ban_entries"
}

type BanStatus struct {
	Banned  bool
	Reason  string
	Entries []BanEntry
}
