package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"anoa.com/studyhub/internal/bootstrap"
	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated sqlite database in a per-test temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Options{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
		NowFunc:    func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func CreateUser(t *testing.T, db *gorm.DB, email string, points, coins int) *entity.User {
	t.Helper()

	usr := &entity.User{
		Email:        email,
		Name:         email,
		PasswordHash: "x",
		Points:       points,
		Level:        entity.LevelForPoints(points),
		Coins:        coins,
	}
	if err := db.Create(usr).Error; err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func Subscribe(t *testing.T, db *gorm.DB, userID uint, expiresAt *time.Time) {
	t.Helper()

	err := db.Model(&entity.User{}).Where("id = ?", userID).Updates(map[string]any{
		"is_subscribed":           true,
		"subscription_expires_at": expiresAt,
	}).Error
	if err != nil {
		t.Fatalf("subscribe() failed: %v", err)
	}
}

func CreateExercise(t *testing.T, db *gorm.DB, ex *entity.Exercise) *entity.Exercise {
	t.Helper()

	if ex.Title == "" {
		ex.Title = "exercise"
	}
	if ex.Difficulty == "" {
		ex.Difficulty = "medium"
	}
	if err := db.Create(ex).Error; err != nil {
		t.Fatalf("createExercise() failed: %v", err)
	}
	return ex
}

func CreateNote(t *testing.T, db *gorm.DB, userID uint, createdAt, updatedAt time.Time) *entity.Note {
	t.Helper()

	note := &entity.Note{
		UserID:    userID,
		Title:     "note",
		Content:   "content",
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if err := db.Create(note).Error; err != nil {
		t.Fatalf("createNote() failed: %v", err)
	}
	return note
}

func IntPtr(v int) *int { return &v }

func TimePtr(v time.Time) *time.Time { return &v }
