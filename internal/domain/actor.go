package domain

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Actor is a person who can author documents and stamp approval slots.
// Slots are capability claims; nothing checks a specific user id.
type Actor struct {
	ID         uint64                    `gorm:"primaryKey" json:"id"`
	Name       string                    `gorm:"size:128;not null" json:"name"`
	Email      string                    `gorm:"uniqueIndex;size:255" json:"email"`
	Initials   string                    `gorm:"size:8" json:"initials"`
	Privileged bool                      `json:"privileged"`
	Slots      datatypes.JSONSlice[Slot] `json:"slots"`
	IsActive   bool                      `gorm:"default:true" json:"isActive"`
	CreatedAt  time.Time                 `json:"createdAt"`
	UpdatedAt  time.Time                 `json:"updatedAt"`
}

func (a Actor) Holds(slot Slot) bool {
	return slices.Contains(a.Slots, slot)
}
