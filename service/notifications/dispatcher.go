package notifications

import (
	"errors"
	"fmt"
	"log"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrUserNotFound    = errors.New("user record not found")
)

// Result reports what a dispatch did. Success covers the in-app record;
// EmailSent reflects only the best-effort email branch.
type Result struct {
	Success        bool   `json:"success"`
	EmailSent      bool   `json:"emailSent"`
	NotificationID string `json:"notificationId,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Dispatcher fans a comment or reply event out into an in-app notification
// record and a best-effort email. The record write is the primary effect:
// email failure is logged and surfaced in the Result, never rolled back.
type Dispatcher struct {
	db        *gorm.DB
	mailer    Mailer
	templates *TemplateStore
	baseURL   string
}

func NewDispatcher(db *gorm.DB, mailer Mailer, templates *TemplateStore, baseURL string) *Dispatcher {
	return &Dispatcher{
		db:        db,
		mailer:    mailer,
		templates: templates,
		baseURL:   baseURL,
	}
}

// Dispatch resolves the recipient for the given comment event and creates the
// notification. For a top-level comment the recipient is the post's author;
// for a reply it is the parent comment's author. Self-authored events are
// suppressed entirely.
func (d *Dispatcher) Dispatch(commentID, postID uint, collectionName string) (Result, error) {
	var comment models.Comment
	if err := d.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, ErrCommentNotFound
		}
		return Result{}, err
	}
	if comment.PostID != postID {
		return Result{}, ErrCommentNotFound
	}

	var post models.Post
	if err := d.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, ErrPostNotFound
		}
		return Result{}, err
	}

	eventType := models.NotificationComment
	recipientID := post.AuthorID
	if comment.IsReply() {
		var parent models.Comment
		if err := d.db.First(&parent, *comment.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Result{}, ErrCommentNotFound
			}
			return Result{}, err
		}
		eventType = models.NotificationReply
		recipientID = parent.AuthorID
	}

	if recipientID == comment.AuthorID {
		return Result{Success: true, Message: "self action, notification skipped"}, nil
	}

	var recipient models.User
	if err := d.db.First(&recipient, recipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, ErrUserNotFound
		}
		return Result{}, err
	}

	var author models.User
	if err := d.db.First(&author, comment.AuthorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, ErrUserNotFound
		}
		return Result{}, err
	}

	notification := models.Notification{
		UserID:         recipientID,
		AuthorID:       comment.AuthorID,
		Type:           eventType,
		PostID:         postID,
		CommentID:      commentID,
		ParentID:       comment.ParentID,
		CollectionName: collectionName,
		Read:           false,
	}
	if err := d.db.Create(&notification).Error; err != nil {
		return Result{}, err
	}

	if !recipient.EmailEnabled() {
		return Result{
			Success:        true,
			NotificationID: notification.ID,
			Message:        "email notifications disabled, in-app notification only",
		}, nil
	}

	if err := d.sendEmail(&recipient, &author, &post, &comment, collectionName); err != nil {
		log.Printf("Error sending notification email to %s: %v", recipient.Email, err)
		return Result{
			Success:        true,
			EmailSent:      false,
			NotificationID: notification.ID,
			Message:        "notification saved but email delivery failed",
		}, nil
	}

	return Result{Success: true, EmailSent: true, NotificationID: notification.ID}, nil
}

func (d *Dispatcher) sendEmail(recipient, author *models.User, post *models.Post, comment *models.Comment, collectionName string) error {
	isReply := comment.IsReply()

	templateName := TemplateComment
	subject := "New comment on your post"
	if isReply {
		templateName = TemplateReply
		subject = "New reply to your comment"
	}

	html, err := d.templates.Render(templateName, TemplateData{
		RecipientName:  recipient.DisplayName,
		AuthorName:     author.DisplayName,
		PostTitle:      post.Title,
		CommentContent: comment.Content,
		PostURL:        fmt.Sprintf("%s/%s/%d", d.baseURL, collectionName, post.ID),
		UnsubscribeURL: fmt.Sprintf("%s/settings", d.baseURL),
		IsReply:        isReply,
	})
	if err != nil {
		return err
	}

	return d.mailer.Send(recipient.Email, subject, html)
}
