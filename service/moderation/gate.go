package moderation

import (
	"errors"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"gorm.io/gorm"
)

// Gate denial reasons, surfaced verbatim to the caller.
var (
	ErrLoginRequired   = errors.New("login required")
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountBlocked  = errors.New("account blocked")
	ErrCommentBanned   = errors.New("comment writing restricted")
	ErrNotApproved     = errors.New("account not yet approved")
)

// IsDenial reports whether err is a moderation gate denial.
func IsDenial(err error) bool {
	return errors.Is(err, ErrLoginRequired) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrAccountBlocked) ||
		errors.Is(err, ErrCommentBanned) ||
		errors.Is(err, ErrNotApproved)
}

// Gate decides whether a user may write comments. Every check reads the live
// user record; decisions are never cached so that bans take effect immediately.
type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// CheckPermission returns nil when the user may write, or the first matching
// denial. Order matters: blocked wins over comment-banned, which wins over
// unapproved.
func (g *Gate) CheckPermission(userID uint) error {
	if userID == 0 {
		return ErrLoginRequired
	}

	var user models.User
	if err := g.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	if user.IsBlocked {
		return ErrAccountBlocked
	}
	if user.IsCommentBanned {
		return ErrCommentBanned
	}
	if user.Role == "" || user.Role == models.RoleGuest {
		return ErrNotApproved
	}

	return nil
}
