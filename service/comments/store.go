package comments

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"github.com/nowijnah/aimajou-server/service/moderation"
	"github.com/nowijnah/aimajou-server/service/notifications"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotAuthor       = errors.New("permission denied")
	ErrContentRequired = errors.New("content is required")
	ErrReplyDepth      = errors.New("replies cannot be nested")
	ErrParentMismatch  = errors.New("parent comment belongs to a different post")
	ErrBadCursor       = errors.New("invalid cursor")
)

const defaultPageSize = 10

// Store owns comment and reply records and keeps the owning post's
// comment_count consistent. Every write goes through the moderation gate and
// runs as one transaction with its counter update.
type Store struct {
	db         *gorm.DB
	gate       *moderation.Gate
	dispatcher *notifications.Dispatcher
}

func NewStore(db *gorm.DB, gate *moderation.Gate, dispatcher *notifications.Dispatcher) *Store {
	return &Store{db: db, gate: gate, dispatcher: dispatcher}
}

// List returns a page of top-level comments for the post, newest first.
// Ties on created_at are broken by id so the cursor never skips or repeats.
func (s *Store) List(postID uint, cursor string, pageSize int) ([]models.Comment, string, error) {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	query := s.db.Where("post_id = ? AND parent_id IS NULL", postID).Preload("Author")
	query, err := applyCursor(query, cursor)
	if err != nil {
		return nil, "", err
	}

	var comments []models.Comment
	if err := query.Order("created_at DESC, id DESC").Limit(pageSize).Find(&comments).Error; err != nil {
		return nil, "", err
	}

	return comments, nextCursor(comments, pageSize), nil
}

// ListReplies returns a page of replies under one top-level comment.
func (s *Store) ListReplies(parentID uint, cursor string, pageSize int) ([]models.Comment, string, error) {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	query := s.db.Where("parent_id = ?", parentID).Preload("Author")
	query, err := applyCursor(query, cursor)
	if err != nil {
		return nil, "", err
	}

	var replies []models.Comment
	if err := query.Order("created_at DESC, id DESC").Limit(pageSize).Find(&replies).Error; err != nil {
		return nil, "", err
	}

	return replies, nextCursor(replies, pageSize), nil
}

// AddTopLevel creates a top-level comment and increments the post's
// comment_count in the same transaction, then fans out a COMMENT notification.
func (s *Store) AddTopLevel(postID, authorID uint, content string, isPrivate bool) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}
	if err := s.gate.CheckPermission(authorID); err != nil {
		return nil, err
	}

	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comment := models.Comment{
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		IsPrivate: isPrivate,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}

	s.notify(comment.ID, postID, post.CollectionName)
	return &comment, nil
}

// AddReply creates a reply under a top-level comment. Privacy is inherited
// from the parent; replying to a reply is rejected.
func (s *Store) AddReply(parentID, postID, authorID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}
	if err := s.gate.CheckPermission(authorID); err != nil {
		return nil, err
	}

	var parent models.Comment
	if err := s.db.First(&parent, parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if parent.IsReply() {
		return nil, ErrReplyDepth
	}
	if parent.PostID != postID {
		return nil, ErrParentMismatch
	}

	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	reply := models.Comment{
		PostID:    postID,
		ParentID:  &parentID,
		AuthorID:  authorID,
		Content:   content,
		IsPrivate: parent.IsPrivate,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}

	s.notify(reply.ID, postID, post.CollectionName)
	return &reply, nil
}

// Edit updates the content of the caller's own comment. Counters are
// untouched.
func (s *Store) Edit(commentID, callerID uint, newContent string) (*models.Comment, error) {
	if strings.TrimSpace(newContent) == "" {
		return nil, ErrContentRequired
	}

	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if comment.AuthorID != callerID {
		return nil, ErrNotAuthor
	}

	comment.Content = newContent
	if err := s.db.Save(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes the caller's comment. Deleting a top-level comment cascades
// over its full reply set in one transaction; comment_count drops by
// 1 + len(replies). The reply set is loaded up front, which bounds how many
// replies one comment can feasibly carry.
func (s *Store) Delete(commentID, callerID uint) error {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.AuthorID != callerID {
		return ErrNotAuthor
	}

	if comment.IsReply() {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&comment).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
				UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1)).Error
		})
	}

	var replies []models.Comment
	if err := s.db.Where("parent_id = ?", comment.ID).Find(&replies).Error; err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if len(replies) > 0 {
			if err := tx.Where("parent_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1+len(replies))).Error
	})
}

// notify fans the event out to the dispatcher. Dispatch problems never fail
// the comment write that triggered them.
func (s *Store) notify(commentID, postID uint, collectionName string) {
	if s.dispatcher == nil {
		return
	}
	if _, err := s.dispatcher.Dispatch(commentID, postID, collectionName); err != nil {
		log.Printf("Error dispatching notification for comment %d: %v", commentID, err)
	}
}

func applyCursor(query *gorm.DB, cursor string) (*gorm.DB, error) {
	if cursor == "" {
		return query, nil
	}
	createdAt, id, err := decodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	return query.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, id), nil
}

func nextCursor(page []models.Comment, pageSize int) string {
	if len(page) < pageSize {
		return ""
	}
	last := page[len(page)-1]
	return encodeCursor(last.CreatedAt, last.ID)
}

func encodeCursor(createdAt time.Time, id uint) string {
	raw := fmt.Sprintf("%d|%d", createdAt.UnixNano(), id)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, uint, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, err
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, errors.New("malformed cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, err
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, err
	}
	return time.Unix(0, nanos), uint(id), nil
}
