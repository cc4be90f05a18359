package notifications_test

import (
	"testing"
	"time"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"github.com/nowijnah/aimajou-server/service/notifications"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createNotification(t *testing.T, db *gorm.DB, userID uint, createdAt time.Time) *models.Notification {
	t.Helper()

	notification := models.Notification{
		UserID:         userID,
		AuthorID:       99,
		Type:           models.NotificationComment,
		PostID:         1,
		CommentID:      1,
		CollectionName: models.CollectionPortfolios,
		CreatedAt:      createdAt,
	}
	require.NoError(t, db.Create(&notification).Error)
	return &notification
}

func TestMarkReadSetsReadAt(t *testing.T) {
	db := openTestDB(t)
	inbox := notifications.NewInbox(db)

	n := createNotification(t, db, 1, time.Now())
	require.NoError(t, inbox.MarkRead(n.ID, 1))

	var fresh models.Notification
	require.NoError(t, db.First(&fresh, "id = ?", n.ID).Error)
	require.True(t, fresh.Read)
	require.NotNil(t, fresh.ReadAt)
}

func TestMarkReadOwnershipDenied(t *testing.T) {
	db := openTestDB(t)
	inbox := notifications.NewInbox(db)

	n := createNotification(t, db, 1, time.Now())
	require.ErrorIs(t, inbox.MarkRead(n.ID, 2), notifications.ErrNotOwner)

	var fresh models.Notification
	require.NoError(t, db.First(&fresh, "id = ?", n.ID).Error)
	require.False(t, fresh.Read)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	db := openTestDB(t)
	inbox := notifications.NewInbox(db)

	err := inbox.MarkRead("does-not-exist", 1)
	require.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}

func TestMarkAllReadCountsOnlyUnread(t *testing.T) {
	db := openTestDB(t)
	inbox := notifications.NewInbox(db)

	for i := 0; i < 3; i++ {
		createNotification(t, db, 1, time.Now())
	}
	already := createNotification(t, db, 1, time.Now())
	require.NoError(t, inbox.MarkRead(already.ID, 1))
	createNotification(t, db, 2, time.Now()) // someone else's

	count, err := inbox.MarkAllRead(1)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	var unread int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", 1, false).Count(&unread).Error)
	require.Zero(t, unread)

	var otherUnread int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", 2, false).Count(&otherUnread).Error)
	require.EqualValues(t, 1, otherUnread)
}

func TestDeleteOwnershipDenied(t *testing.T) {
	db := openTestDB(t)
	inbox := notifications.NewInbox(db)

	n := createNotification(t, db, 1, time.Now())
	require.ErrorIs(t, inbox.Delete(n.ID, 2), notifications.ErrNotOwner)
	require.NoError(t, inbox.Delete(n.ID, 1))

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	db := openTestDB(t)
	inbox := notifications.NewInbox(db)

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 12; i++ {
		createNotification(t, db, 1, base.Add(time.Duration(i)*time.Minute))
	}
	createNotification(t, db, 2, base) // not the caller's

	first, cursor, err := inbox.List(1, "", 10)
	require.NoError(t, err)
	require.Len(t, first, 10)
	require.NotEmpty(t, cursor)
	require.True(t, first[0].CreatedAt.After(first[9].CreatedAt))

	second, _, err := inbox.List(1, cursor, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)

	seen := map[string]bool{}
	for _, n := range append(first, second...) {
		require.Equal(t, uint(1), n.UserID)
		require.False(t, seen[n.ID])
		seen[n.ID] = true
	}
	require.Len(t, seen, 12)
}

func TestListRejectsGarbageCursor(t *testing.T) {
	db := openTestDB(t)
	inbox := notifications.NewInbox(db)

	_, _, err := inbox.List(1, "not-base64!!", 10)
	require.ErrorIs(t, err, notifications.ErrBadCursor)
}

func TestUpdateSettings(t *testing.T) {
	db := openTestDB(t)
	inbox := notifications.NewInbox(db)

	user := createUser(t, db, "pref")
	require.True(t, user.EmailEnabled())

	require.NoError(t, inbox.UpdateSettings(user.ID, false))

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	require.False(t, fresh.EmailEnabled())

	require.ErrorIs(t, inbox.UpdateSettings(9999, true), notifications.ErrUserNotFound)
}
