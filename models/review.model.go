package models

type Review struct {
	Base
	ListingID uint   `gorm:"not null;uniqueIndex:idx_review_listing_user" json:"listingId"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_review_listing_user" json:"userId"` // Who gave the review
	User      *User  `json:"user,omitempty"`
	Rating    int    `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"` // 1–5 rating
	Comment   string `gorm:"type:text;default:''" json:"comment"`                        // Optional comment
}
