package models

import "gorm.io/gorm"

// Feedback is a comment attached to a post. UserID is nil for guest
// submissions; guest feedback has no owner and can never be edited or deleted.
// Name is a display-name snapshot taken at creation time and is not re-derived
// from the user record later. Deleting a post does not cascade here, so Post
// may resolve to nothing for old feedback.
type Feedback struct {
	gorm.Model
	PostID    uint   `json:"postID" gorm:"index;not null"`
	Post      *Post  `json:"post,omitempty" gorm:"foreignKey:PostID;references:ID"`
	Text      string `json:"text" gorm:"type:text;not null"`
	Name      string `json:"name" gorm:"default:Anonymous"`
	Anonymous bool   `json:"anonymous" gorm:"default:true"`
	UserID    *uint  `json:"userID" gorm:"index"`
	User      *User  `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}
