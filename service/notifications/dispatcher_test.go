package notifications_test

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/nowijnah/aimajou-server/cmd/models"
	"github.com/nowijnah/aimajou-server/service/notifications"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Notification{},
	))
	return db
}

func newDispatcher(t *testing.T, db *gorm.DB, mailer notifications.Mailer) *notifications.Dispatcher {
	t.Helper()
	return notifications.NewDispatcher(
		db, mailer, notifications.NewTemplateStore("missing"), "https://example.test")
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := models.User{
		DisplayName: name,
		Email:       name + "@example.com",
		Role:        models.RoleStudent,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createPost(t *testing.T, db *gorm.DB, authorID uint) *models.Post {
	t.Helper()

	post := models.Post{
		AuthorID:       authorID,
		Title:          "test post",
		CollectionName: models.CollectionPortfolios,
	}
	require.NoError(t, db.Create(&post).Error)
	return &post
}

func createComment(t *testing.T, db *gorm.DB, postID, authorID uint, parentID *uint) *models.Comment {
	t.Helper()

	comment := models.Comment{
		PostID:   postID,
		ParentID: parentID,
		AuthorID: authorID,
		Content:  "hello",
	}
	require.NoError(t, db.Create(&comment).Error)
	return &comment
}

// A top-level comment notifies the post author; a reply notifies the parent
// comment's author even when the replier owns the post.
func TestDispatchRouting(t *testing.T) {
	db := openTestDB(t)
	mailer := &fakeMailer{}
	dispatcher := newDispatcher(t, db, mailer)

	userA := createUser(t, db, "alice")
	userB := createUser(t, db, "bob")
	post := createPost(t, db, userB.ID)

	// A comments on B's post
	c1 := createComment(t, db, post.ID, userA.ID, nil)
	result, err := dispatcher.Dispatch(c1.ID, post.ID, post.CollectionName)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.True(t, result.EmailSent)

	var first models.Notification
	require.NoError(t, db.First(&first, "id = ?", result.NotificationID).Error)
	require.Equal(t, userB.ID, first.UserID)
	require.Equal(t, userA.ID, first.AuthorID)
	require.Equal(t, models.NotificationComment, first.Type)
	require.Equal(t, c1.ID, first.CommentID)
	require.Nil(t, first.ParentID)

	// B (the post author) replies to A's comment: the reply's recipient is
	// A, the parent comment's author, not the post's author.
	r1 := createComment(t, db, post.ID, userB.ID, &c1.ID)
	result, err = dispatcher.Dispatch(r1.ID, post.ID, post.CollectionName)
	require.NoError(t, err)
	require.True(t, result.Success)

	var second models.Notification
	require.NoError(t, db.First(&second, "id = ?", result.NotificationID).Error)
	require.Equal(t, userA.ID, second.UserID)
	require.Equal(t, userB.ID, second.AuthorID)
	require.Equal(t, models.NotificationReply, second.Type)
	require.Equal(t, r1.ID, second.CommentID)
	require.NotNil(t, second.ParentID)
	require.Equal(t, c1.ID, *second.ParentID)

	require.Len(t, mailer.sent, 2)
	require.Equal(t, "bob@example.com", mailer.sent[0].to)
	require.Equal(t, "alice@example.com", mailer.sent[1].to)
}

func TestDispatchSuppressesSelfAction(t *testing.T) {
	db := openTestDB(t)
	mailer := &fakeMailer{}
	dispatcher := newDispatcher(t, db, mailer)

	owner := createUser(t, db, "owner")
	post := createPost(t, db, owner.ID)
	comment := createComment(t, db, post.ID, owner.ID, nil)

	result, err := dispatcher.Dispatch(comment.ID, post.ID, post.CollectionName)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.NotificationID)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	require.Zero(t, count)
	require.Empty(t, mailer.sent)
}

// Email failures never undo the notification record.
func TestDispatchEmailFailureIsIsolated(t *testing.T) {
	db := openTestDB(t)
	mailer := &fakeMailer{err: errors.New("smtp unreachable")}
	dispatcher := newDispatcher(t, db, mailer)

	owner := createUser(t, db, "owner")
	commenter := createUser(t, db, "commenter")
	post := createPost(t, db, owner.ID)
	comment := createComment(t, db, post.ID, commenter.ID, nil)

	result, err := dispatcher.Dispatch(comment.ID, post.ID, post.CollectionName)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.EmailSent)
	require.NotEmpty(t, result.NotificationID)

	var notification models.Notification
	require.NoError(t, db.First(&notification, "id = ?", result.NotificationID).Error)
	require.Equal(t, owner.ID, notification.UserID)
}

func TestDispatchHonorsEmailPreference(t *testing.T) {
	db := openTestDB(t)
	mailer := &fakeMailer{}
	dispatcher := newDispatcher(t, db, mailer)

	owner := createUser(t, db, "owner")
	disabled := false
	require.NoError(t, db.Model(owner).Update("email_notifications", disabled).Error)

	commenter := createUser(t, db, "commenter")
	post := createPost(t, db, owner.ID)
	comment := createComment(t, db, post.ID, commenter.ID, nil)

	result, err := dispatcher.Dispatch(comment.ID, post.ID, post.CollectionName)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.EmailSent)
	require.NotEmpty(t, result.NotificationID)
	require.Empty(t, mailer.sent)
}

func TestDispatchMissingComment(t *testing.T) {
	db := openTestDB(t)
	dispatcher := newDispatcher(t, db, &fakeMailer{})

	owner := createUser(t, db, "owner")
	post := createPost(t, db, owner.ID)

	_, err := dispatcher.Dispatch(12345, post.ID, post.CollectionName)
	require.ErrorIs(t, err, notifications.ErrCommentNotFound)
}

func TestDispatchCommentPostMismatch(t *testing.T) {
	db := openTestDB(t)
	dispatcher := newDispatcher(t, db, &fakeMailer{})

	owner := createUser(t, db, "owner")
	commenter := createUser(t, db, "commenter")
	post := createPost(t, db, owner.ID)
	other := createPost(t, db, owner.ID)
	comment := createComment(t, db, post.ID, commenter.ID, nil)

	_, err := dispatcher.Dispatch(comment.ID, other.ID, other.CollectionName)
	require.ErrorIs(t, err, notifications.ErrCommentNotFound)
}

func TestDispatchMissingRecipientUser(t *testing.T) {
	db := openTestDB(t)
	dispatcher := newDispatcher(t, db, &fakeMailer{})

	commenter := createUser(t, db, "commenter")
	post := createPost(t, db, 777) // author record does not exist
	comment := createComment(t, db, post.ID, commenter.ID, nil)

	_, err := dispatcher.Dispatch(comment.ID, post.ID, post.CollectionName)
	require.ErrorIs(t, err, notifications.ErrUserNotFound)
}
