package models

import (
	"time"

	"github.com/farmchain/farmchain/pkg/auth"
)

// User is a farmer or buyer account. Password holds the bcrypt hash and is
// never serialized.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	UserType     auth.Role `gorm:"type:varchar(16);not null;index" json:"userType"`
	Phone        *string   `gorm:"size:32" json:"phone"`
	Address      *string   `gorm:"size:255" json:"address"`
	City         *string   `gorm:"size:100" json:"city"`
	State        *string   `gorm:"size:100" json:"state"`
	Pincode      *string   `gorm:"size:16" json:"pincode"`
	About        *string   `gorm:"type:text" json:"about"`
	ProfileImage *string   `gorm:"size:512" json:"profileImage"`
	IsVerified   bool      `gorm:"not null;default:false" json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity returns the session identity of u.
func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Role: u.UserType}
}
