package models

import "gorm.io/gorm"

// Post is an image + caption record. UserID is set once at creation and is the
// only identity allowed to update or delete the post.
type Post struct {
	gorm.Model
	Caption string `json:"caption" gorm:"type:text;not null"`
	Image   string `json:"image" gorm:"not null"`
	UserID  uint   `json:"userID" gorm:"index;not null"`
	User    User   `json:"user" gorm:"foreignKey:UserID;references:ID"`
}
