package models

import (
	"gorm.io/datatypes"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderAny    = "any"
)

// Photo is a CDN hosted image. PublicID is empty for URLs the CDN did not issue.
type Photo struct {
	URL      string `json:"url" validate:"required,url"`
	PublicID string `json:"publicId,omitempty" validate:"max=255"`
}

type Listing struct {
	Base
	OwnerID        uint                        `gorm:"index;not null" json:"ownerId"`
	Owner          *User                       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title          string                      `gorm:"not null" json:"title"`
	Description    string                      `gorm:"type:text;default:''" json:"description"`
	Address        string                      `gorm:"not null" json:"address"`
	City           string                      `gorm:"index;not null" json:"city"`
	College        string                      `gorm:"index;default:''" json:"college"`
	Rent           float64                     `gorm:"not null" json:"rent"`
	Deposit        float64                     `gorm:"default:0" json:"deposit"`
	Gender         string                      `gorm:"default:'any'" json:"gender"` // male, female, any
	Amenities      datatypes.JSONSlice[string] `json:"amenities"`
	Photos         datatypes.JSONSlice[Photo]  `json:"photos"`
	Lat            *float64                    `json:"lat,omitempty"`
	Lng            *float64                    `json:"lng,omitempty"`
	AvailableRooms int                         `gorm:"default:1" json:"availableRooms"`
	AvgRating      float64                     `gorm:"default:0" json:"avgRating"`
	RatingCount    int                         `gorm:"default:0" json:"ratingCount"`
}

// HasLocation reports whether the listing carries a geo point.
func (l *Listing) HasLocation() bool {
	return l.Lat != nil && l.Lng != nil
}

func IsValidGender(gender string) bool {
	return gender == GenderMale || gender == GenderFemale || gender == GenderAny
}
