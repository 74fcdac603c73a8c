package models

import "time"

// PantryItem is an ingredient stored in a user's virtual pantry.
type PantryItem struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	UserID    string    `json:"userId" gorm:"index;size:128;not null"`
	Name      string    `json:"name" gorm:"size:128;not null" validate:"required,max=128"`
	Category  string    `json:"category,omitempty" gorm:"size:64" validate:"max=64"`
	Zone      string    `json:"zone,omitempty" gorm:"size:32" validate:"max=32"`
	Quantity  string    `json:"quantity,omitempty" gorm:"size:32" validate:"max=32"`
	Regional  Regional  `json:"regional" gorm:"embedded;embeddedPrefix:regional_"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the gorm table name.
func (PantryItem) TableName() string { return "pantry_items" }

// Regional carries localized names of an ingredient.
type Regional struct {
	ES string `json:"es,omitempty" gorm:"size:128" validate:"max=128"`
	MX string `json:"mx,omitempty" gorm:"size:128" validate:"max=128"`
	EN string `json:"en,omitempty" gorm:"size:128" validate:"max=128"`
}

// Names returns every non-empty name of the item.
func (p PantryItem) Names() []string {
	out := make([]string, 0, 4)
	for _, n := range []string{p.Name, p.Regional.ES, p.Regional.MX, p.Regional.EN} {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
