package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types.
const (
	NotificationComment = "COMMENT"
	NotificationReply   = "REPLY"
)

// Notification is an in-app record owned by the recipient. It is created once
// per qualifying comment or reply event, mutated only by read/read_at, and
// removed either by its owner or by the daily retention job.
type Notification struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         uint       `gorm:"column:user_id;not null;index" json:"userId"`
	AuthorID       uint       `gorm:"column:author_id;not null" json:"authorId"`
	Type           string     `gorm:"column:type;size:20;not null" json:"type"`
	PostID         uint       `gorm:"column:post_id;not null" json:"postId"`
	CommentID      uint       `gorm:"column:comment_id;not null" json:"commentId"`
	ParentID       *uint      `gorm:"column:parent_id" json:"parentId,omitempty"`
	CollectionName string     `gorm:"column:collection_name;size:50" json:"collectionName"`
	Read           bool       `gorm:"column:read;default:false;index" json:"read"`
	CreatedAt      time.Time  `gorm:"column:created_at;index" json:"createdAt"`
	ReadAt         *time.Time `gorm:"column:read_at" json:"readAt,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
