package models

import "time"

// UserProfile is the dietary and health profile a user registers.
// List fields tolerate loosely typed input from older clients.
type UserProfile struct {
	UID               string     `json:"uid" gorm:"column:uid;primaryKey;size:128" validate:"max=128"`
	Gender            string     `json:"gender,omitempty" gorm:"size:32" validate:"max=32"`
	Age               FlexString `json:"age,omitempty" gorm:"size:16" validate:"max=16"`
	Weight            FlexString `json:"weight,omitempty" gorm:"size:16" validate:"max=16"`
	Height            FlexString `json:"height,omitempty" gorm:"size:16" validate:"max=16"`
	Country           string     `json:"country,omitempty" gorm:"size:64" validate:"max=64"`
	City              string     `json:"city,omitempty" gorm:"size:128" validate:"max=128"`
	Diseases          StringList `json:"diseases" gorm:"type:text" validate:"max=50,dive,max=100"`
	Allergies         StringList `json:"allergies" gorm:"type:text" validate:"max=50,dive,max=100"`
	OtherAllergies    string     `json:"otherAllergies,omitempty" gorm:"size:512" validate:"max=512"`
	EatingHabit       string     `json:"eatingHabit,omitempty" gorm:"size:64" validate:"max=64"`
	ActivityLevel     string     `json:"activityLevel,omitempty" gorm:"size:64" validate:"max=64"`
	ActivityFrequency string     `json:"activityFrequency,omitempty" gorm:"size:64" validate:"max=64"`
	NutritionalGoal   StringList `json:"nutritionalGoal" gorm:"type:text" validate:"max=20,dive,max=100"`
	CookingAffinity   string     `json:"cookingAffinity,omitempty" gorm:"size:64" validate:"max=64"`
	DislikedFoods     StringList `json:"dislikedFoods" gorm:"type:text" validate:"max=100,dive,max=100"`
	Language          string     `json:"language,omitempty" gorm:"size:8" validate:"max=8"`
	Location          *GeoPoint  `json:"location,omitempty" gorm:"embedded;embeddedPrefix:location_" validate:"omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// TableName pins the gorm table name.
func (UserProfile) TableName() string { return "user_profiles" }

// GeoPoint is a WGS84 coordinate with optional accuracy in meters.
type GeoPoint struct {
	Lat      float64  `json:"lat" validate:"gte=-90,lte=90"`
	Lng      float64  `json:"lng" validate:"gte=-180,lte=180"`
	Accuracy *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
}
