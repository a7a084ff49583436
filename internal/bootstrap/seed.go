package bootstrap

import (
	"anoa.com/studyhub/internal/entity"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.PointLog{},
		&entity.MissionCompletion{},
		&entity.Note{},
		&entity.Exercise{},
		&entity.ExerciseQuestion{},
		&entity.Purchase{},
		&entity.Notification{},
		&entity.Class{},
		&entity.ClassMember{},
	)
}

// SeedAdminUser creates the admin account once. An empty password skips seeding.
func SeedAdminUser(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		zap.L().Info("admin credentials not configured, skipping seed")
		return nil
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		zap.L().Debug("admin user already exists, skipping seed", zap.String("email", email))
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := entity.User{
		Email:        email,
		Name:         "Administrator",
		PasswordHash: string(hashedPasswordBytes),
		IsAdmin:      true,
		Level:        1,
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	zap.L().Info("admin user seeded", zap.String("email", email))
	return nil
}
