package models

const (
	InquiryOpen   = "open"
	InquiryClosed = "closed"
)

type Inquiry struct {
	Base
	ListingID uint     `gorm:"index;not null" json:"listingId"`
	Listing   *Listing `gorm:"constraint:OnDelete:CASCADE" json:"listing,omitempty"`
	StudentID uint     `gorm:"index;not null" json:"studentId"`
	Student   *User    `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	OwnerID   uint     `gorm:"index;not null" json:"ownerId"`
	Message   string   `gorm:"type:text;not null" json:"message"`
	Contact   string   `gorm:"default:''" json:"contact"` // phone, email or whatsapp
	Status    string   `gorm:"index;default:'open'" json:"status"`
}

func IsValidInquiryStatus(status string) bool {
	return status == InquiryOpen || status == InquiryClosed
}
