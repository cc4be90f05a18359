package notifications

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"gorm.io/gorm"
)

var (
	ErrNotOwner             = errors.New("permission denied")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrBadCursor            = errors.New("invalid cursor")
)

// Inbox is the read/update surface over a user's own notifications. Every
// mutation is ownership-checked against the caller.
type Inbox struct {
	db *gorm.DB
}

func NewInbox(db *gorm.DB) *Inbox {
	return &Inbox{db: db}
}

func (i *Inbox) owned(notificationID string, callerID uint) (*models.Notification, error) {
	var notification models.Notification
	if err := i.db.First(&notification, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if notification.UserID != callerID {
		return nil, ErrNotOwner
	}
	return &notification, nil
}

// MarkRead sets read and read_at on the caller's notification.
func (i *Inbox) MarkRead(notificationID string, callerID uint) error {
	notification, err := i.owned(notificationID, callerID)
	if err != nil {
		return err
	}

	now := time.Now()
	return i.db.Model(notification).Updates(map[string]interface{}{
		"read":    true,
		"read_at": now,
	}).Error
}

// MarkAllRead marks every unread notification for the caller in one batch
// update and returns how many were affected.
func (i *Inbox) MarkAllRead(callerID uint) (int64, error) {
	now := time.Now()
	result := i.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", callerID, false).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": now,
		})
	return result.RowsAffected, result.Error
}

// Delete removes the caller's notification.
func (i *Inbox) Delete(notificationID string, callerID uint) error {
	notification, err := i.owned(notificationID, callerID)
	if err != nil {
		return err
	}
	return i.db.Delete(notification).Error
}

// List returns a page of the caller's notifications, newest first, with an
// opaque cursor for the next page. Ordering ties on created_at are broken by
// id so the cursor is stable.
func (i *Inbox) List(callerID uint, cursor string, pageSize int) ([]models.Notification, string, error) {
	if pageSize < 1 {
		pageSize = 10
	}

	query := i.db.Where("user_id = ?", callerID)

	if cursor != "" {
		createdAt, id, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBadCursor, err)
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(pageSize).Find(&notifications).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(notifications) == pageSize {
		last := notifications[len(notifications)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}
	return notifications, next, nil
}

// UpdateSettings sets the caller's email notification preference.
func (i *Inbox) UpdateSettings(callerID uint, emailNotifications bool) error {
	result := i.db.Model(&models.User{}).
		Where("id = ?", callerID).
		Update("email_notifications", emailNotifications)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func encodeCursor(createdAt time.Time, id string) string {
	raw := fmt.Sprintf("%d|%s", createdAt.UnixNano(), id)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", err
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", errors.New("malformed cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", err
	}
	return time.Unix(0, nanos), parts[1], nil
}
