package models

import (
	"time"

	"gorm.io/datatypes"
)

// Expert is an evaluator profile visible to the matching policy. The
// speciality list is ordered: index 0 is the primary speciality, index 1
// the secondary. The list may be empty, in which case the expert is only
// reachable through the unranked fallback tier.
type Expert struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	Name         string                      `gorm:"size:255;not null" json:"name"`
	Specialities datatypes.JSONSlice[string] `json:"specialities"`
	Active       bool                        `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// PrimarySpeciality returns the first speciality code, if any.
func (e Expert) PrimarySpeciality() (string, bool) {
	if len(e.Specialities) > 0 {
		return e.Specialities[0], true
	}
	return "", false
}

// SecondarySpeciality returns the second speciality code, if any.
func (e Expert) SecondarySpeciality() (string, bool) {
	if len(e.Specialities) > 1 {
		return e.Specialities[1], true
	}
	return "", false
}
