package service

import (
	"context"
	"encoding/json"
	"fmt"

	"anoa.com/studyhub/internal/entity"
	notifRepo "anoa.com/studyhub/internal/modules/notification/repository"
	"anoa.com/studyhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Channel is the redis pubsub channel carrying a user's live notifications.
func Channel(userID uint) string {
	return fmt.Sprintf("user_notifications:%d", userID)
}

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	Notify(ctx context.Context, userID uint, notifType, message string, data map[string]any) error
	GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID uint, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err != nil {
			zap.L().Warn("failed to encode notification for publish",
				zap.Uint("user_id", notification.UserID),
				zap.Error(err),
			)
			return nil
		}
		if err := s.redisClient.Publish(ctx, Channel(notification.UserID), payload).Err(); err != nil {
			zap.L().Warn("failed to publish notification",
				zap.Uint("user_id", notification.UserID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (s *notificationService) Notify(ctx context.Context, userID uint, notifType, message string, data map[string]any) error {
	return s.CreateNotification(ctx, &entity.Notification{
		UserID:  userID,
		Type:    notifType,
		Message: message,
		Data:    datatypes.JSONMap(data),
	})
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]entity.Notification, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID uint, id uuid.UUID) error {
	updated, err := s.repo.MarkAsRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !updated {
		return apperror.ErrNotFound
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
