package moderation_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/nowijnah/aimajou-server/cmd/models"
	"github.com/nowijnah/aimajou-server/service/moderation"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func TestCheckPermissionLoginRequired(t *testing.T) {
	gate := moderation.NewGate(openTestDB(t))

	err := gate.CheckPermission(0)
	require.ErrorIs(t, err, moderation.ErrLoginRequired)
}

func TestCheckPermissionAccountNotFound(t *testing.T) {
	gate := moderation.NewGate(openTestDB(t))

	err := gate.CheckPermission(42)
	require.ErrorIs(t, err, moderation.ErrAccountNotFound)
}

func TestCheckPermissionBlockedWinsOverCommentBan(t *testing.T) {
	db := openTestDB(t)
	user := models.User{
		DisplayName:     "blocked",
		Email:           "blocked@example.com",
		Role:            models.RoleStudent,
		IsBlocked:       true,
		IsCommentBanned: true,
	}
	require.NoError(t, db.Create(&user).Error)

	err := moderation.NewGate(db).CheckPermission(user.ID)
	require.ErrorIs(t, err, moderation.ErrAccountBlocked)
}

func TestCheckPermissionCommentBanned(t *testing.T) {
	db := openTestDB(t)
	user := models.User{
		DisplayName:     "banned",
		Email:           "banned@example.com",
		Role:            models.RoleStudent,
		IsCommentBanned: true,
	}
	require.NoError(t, db.Create(&user).Error)

	err := moderation.NewGate(db).CheckPermission(user.ID)
	require.ErrorIs(t, err, moderation.ErrCommentBanned)
}

func TestCheckPermissionUnapprovedGuest(t *testing.T) {
	db := openTestDB(t)
	user := models.User{
		DisplayName: "newcomer",
		Email:       "newcomer@example.com",
		Role:        models.RoleGuest,
	}
	require.NoError(t, db.Create(&user).Error)

	err := moderation.NewGate(db).CheckPermission(user.ID)
	require.ErrorIs(t, err, moderation.ErrNotApproved)
}

func TestCheckPermissionAllowed(t *testing.T) {
	db := openTestDB(t)
	user := models.User{
		DisplayName: "student",
		Email:       "student@example.com",
		Role:        models.RoleStudent,
	}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, moderation.NewGate(db).CheckPermission(user.ID))
}

// A ban applied after a successful check must deny the very next check: the
// gate reads the live record every time, never a cached decision.
func TestCheckPermissionReadsFreshState(t *testing.T) {
	db := openTestDB(t)
	user := models.User{
		DisplayName: "student",
		Email:       "student@example.com",
		Role:        models.RoleStudent,
	}
	require.NoError(t, db.Create(&user).Error)

	gate := moderation.NewGate(db)
	require.NoError(t, gate.CheckPermission(user.ID))

	require.NoError(t, db.Model(&user).Update("is_comment_banned", true).Error)
	require.ErrorIs(t, gate.CheckPermission(user.ID), moderation.ErrCommentBanned)
}
