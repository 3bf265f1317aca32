package models

import "time"

// Booking statuses
const (
	BookingRequested = "requested"
	BookingApproved  = "approved"
	BookingRejected  = "rejected"
	BookingCancelled = "cancelled"
	BookingVisited   = "visited"
)

type Booking struct {
	Base
	ListingID      uint       `gorm:"index;not null" json:"listingId"`
	Listing        *Listing   `gorm:"constraint:OnDelete:CASCADE" json:"listing,omitempty"`
	UserID         uint       `gorm:"index;not null" json:"userId"`
	User           *User      `json:"user,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	DurationMonths int        `gorm:"default:0" json:"durationMonths"`
	VisitOnly      bool       `gorm:"default:false" json:"visitOnly"`
	Note           string     `gorm:"type:text;default:''" json:"note"`
	Status         string     `gorm:"index;default:'requested'" json:"status"`
}

func IsValidBookingStatus(status string) bool {
	switch status {
	case BookingRequested, BookingApproved, BookingRejected, BookingCancelled, BookingVisited:
		return true
	}
	return false
}
