package likes

import (
	"errors"
	"strings"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPostNotFound = errors.New("post not found")

const toggleRetries = 3

// Ledger holds per-(user, post) like records. The unique index on
// (user_id, post_id) guarantees at most one record per pair; the post's
// like_count is a cached aggregate maintained in the same transaction.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Toggle flips the user's like on the post in one transaction: read the
// current state, then create or delete the like record and adjust the counter
// relative to the stored value, floored at zero. The relative update means
// concurrent toggles on the same post cannot overwrite each other's counter
// writes. Conflict errors are retried; a concurrent duplicate insert trips
// the unique index and the retry re-reads the new state.
func (l *Ledger) Toggle(postID, userID uint) (bool, int, error) {
	var (
		isLiked   bool
		likeCount int
		err       error
	)

	for attempt := 0; attempt < toggleRetries; attempt++ {
		isLiked, likeCount, err = l.toggleOnce(postID, userID)
		if err == nil || !retryableConflict(err) {
			return isLiked, likeCount, err
		}
	}
	return isLiked, likeCount, err
}

// retryableConflict reports whether an attempt lost a race with a concurrent
// writer: a duplicate like row from a racing insert, or a serialization or
// deadlock failure from the database. Anything else is permanent and is
// returned as-is.
func retryableConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "SQLSTATE 40P01") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint")
}

func (l *Ledger) toggleOnce(postID, userID uint) (bool, int, error) {
	var isLiked bool
	var likeCount int

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		var existing models.Like
		var counter clause.Expr
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.Like{UserID: userID, PostID: postID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			counter = gorm.Expr("like_count + 1")
			isLiked = true
		case err != nil:
			return err
		default:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			// floor at zero so a drifted aggregate self-heals
			counter = gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")
			isLiked = false
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", counter).Error; err != nil {
			return err
		}

		var updated models.Post
		if err := tx.First(&updated, postID).Error; err != nil {
			return err
		}
		likeCount = updated.LikeCount
		return nil
	})

	return isLiked, likeCount, err
}

// Status reports whether the user has liked the post and the current cached
// like_count.
func (l *Ledger) Status(postID, userID uint) (bool, int, error) {
	var post models.Post
	if err := l.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, ErrPostNotFound
		}
		return false, 0, err
	}

	if userID == 0 {
		return false, post.LikeCount, nil
	}

	var count int64
	if err := l.db.Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, 0, err
	}
	return count > 0, post.LikeCount, nil
}
