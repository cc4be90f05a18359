package models

import "gorm.io/gorm"

// Account roles. GUEST is the signup default until an admin approves the
// account; guests cannot write comments.
const (
	RoleGuest     = "GUEST"
	RoleStudent   = "STUDENT"
	RoleCompany   = "COMPANY"
	RoleProfessor = "PROFESSOR"
	RoleAdmin     = "ADMIN"
)

type User struct {
	gorm.Model
	DisplayName     string `gorm:"column:display_name;size:255;not null" json:"display_name"`
	Email           string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Role            string `gorm:"column:role;size:50;not null;default:GUEST" json:"role"`
	IsBlocked       bool   `gorm:"column:is_blocked;default:false" json:"is_blocked"`
	IsCommentBanned bool   `gorm:"column:is_comment_banned;default:false" json:"is_comment_banned"`

	// Nil means notification emails are enabled; only an explicit false
	// turns them off.
	EmailNotifications *bool `gorm:"column:email_notifications" json:"email_notifications,omitempty"`
}

// EmailEnabled reports whether the user should receive notification emails.
func (u *User) EmailEnabled() bool {
	return u.EmailNotifications == nil || *u.EmailNotifications
}
