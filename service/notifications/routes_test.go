package notifications_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"github.com/nowijnah/aimajou-server/cmd/utils"
	"github.com/nowijnah/aimajou-server/service/notifications"
	"github.com/stretchr/testify/require"
)

func listRequest(target string, callerID uint) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := context.WithValue(req.Context(), utils.UserIDKey, callerID)
	return req.WithContext(ctx)
}

func TestListNotificationsRejectsGarbageCursor(t *testing.T) {
	db := openTestDB(t)
	handler := notifications.NewNotificationHandler(
		newDispatcher(t, db, &fakeMailer{}), notifications.NewInbox(db))

	rec := httptest.NewRecorder()
	handler.ListNotifications(rec, listRequest("/notifications?cursor=not-base64!!", 1))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid cursor")
}

func TestListNotificationsClampsPageSize(t *testing.T) {
	db := openTestDB(t)
	handler := notifications.NewNotificationHandler(
		newDispatcher(t, db, &fakeMailer{}), notifications.NewInbox(db))

	for i := 0; i < 120; i++ {
		n := models.Notification{
			UserID:         1,
			AuthorID:       2,
			Type:           models.NotificationComment,
			PostID:         3,
			CollectionName: models.CollectionPortfolios,
		}
		require.NoError(t, db.Create(&n).Error)
	}

	rec := httptest.NewRecorder()
	handler.ListNotifications(rec, listRequest("/notifications?limit=500", 1))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		NextCursor    string                `json:"nextCursor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 100)
	require.NotEmpty(t, resp.NextCursor)
}
