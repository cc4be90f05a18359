package models

import (
	"time"

	"gorm.io/gorm"
)

// Content collections. Each post belongs to exactly one collection and its
// comments live in a per-collection namespace.
const (
	CollectionPortfolios = "portfolios"
	CollectionLabs       = "labs"
	CollectionCompanies  = "companies"
)

// ValidCollection reports whether name is one of the known content collections.
func ValidCollection(name string) bool {
	switch name {
	case CollectionPortfolios, CollectionLabs, CollectionCompanies:
		return true
	}
	return false
}

// Post is the engagement view of a content document. The rest of the post
// (files, thumbnail, markdown body) is owned by the content service; this
// subsystem only maintains like_count and comment_count.
type Post struct {
	gorm.Model
	AuthorID       uint   `gorm:"column:author_id;not null;index" json:"author_id"`
	Title          string `gorm:"column:title;size:255;not null" json:"title"`
	Content        string `gorm:"column:content;type:text" json:"content"`
	CollectionName string `gorm:"column:collection_name;size:50;not null;index" json:"collection_name"`
	LikeCount      int    `gorm:"column:like_count;default:0" json:"like_count"`
	CommentCount   int    `gorm:"column:comment_count;default:0" json:"comment_count"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// Comment is a top-level comment when ParentID is nil and a reply otherwise.
// Nesting is exactly one level deep: a reply's parent is always top-level.
type Comment struct {
	gorm.Model
	PostID    uint   `gorm:"column:post_id;not null;index" json:"post_id"`
	ParentID  *uint  `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	AuthorID  uint   `gorm:"column:author_id;not null" json:"author_id"`
	Content   string `gorm:"column:content;type:text;not null" json:"content"`
	IsPrivate bool   `gorm:"column:is_private;default:false" json:"is_private"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// IsReply reports whether the comment is a reply to a top-level comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// Like records a single user's like on a post. The (user_id, post_id) pair is
// unique; presence of the row is the source of truth for like state and the
// post's like_count is a cached aggregate. Likes are deleted outright, never
// soft-deleted, so the unique index always reflects the live ledger.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    uint      `gorm:"column:post_id;not null;uniqueIndex:idx_like_user_post" json:"post_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}
