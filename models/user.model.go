package models

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleOwner   = "owner"
)

// Base replaces gorm.Model so the JSON keys match what the clients expect.
type Base struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type User struct {
	Base
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"default:'student'" json:"role"` // student, owner
	Phone     string    `gorm:"default:''" json:"phone"`
	Avatar    string    `gorm:"default:''" json:"avatar"`
	Favorites []Listing `gorm:"many2many:user_favorites;constraint:OnDelete:CASCADE" json:"-"`
}

// IsValidRole reports whether role is one of the supported account roles.
func IsValidRole(role string) bool {
	return role == RoleStudent || role == RoleOwner
}
