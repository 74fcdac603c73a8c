package models

import "time"

// HistoryEntry records one delivered recommendation.
type HistoryEntry struct {
	ID            string     `json:"id" gorm:"primaryKey;size:64"`
	UserID        string     `json:"userId" gorm:"index:idx_history_user_created,priority:1;size:128;not null"`
	InteractionID string     `json:"interactionId" gorm:"size:64"`
	Type          string     `json:"type" gorm:"size:16"`
	Titles        StringList `json:"titles" gorm:"type:text"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"index:idx_history_user_created,priority:2;index"`
}

// TableName pins the gorm table name.
func (HistoryEntry) TableName() string { return "user_history" }

// Plan is the persisted output of the recommendation model.
type Plan struct {
	ID             string    `json:"id" gorm:"primaryKey;size:64"`
	UserID         string    `json:"userId" gorm:"index;size:128;not null"`
	InteractionID  string    `json:"interactionId" gorm:"uniqueIndex;size:64"`
	Type           string    `json:"type" gorm:"size:16"`
	ProfileContext string    `json:"profileContext" gorm:"type:text"`
	Payload        JSONMap   `json:"payload" gorm:"type:text"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index"`
}

// TableName pins the gorm table name.
func (Plan) TableName() string { return "meal_plans" }
