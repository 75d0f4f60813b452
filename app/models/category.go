package models

// Category is static reference data seeded at install time.
type Category struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description *string `gorm:"type:text" json:"description"`
	ImageURL    *string `gorm:"column:image_url;size:512" json:"imageUrl"`
}
