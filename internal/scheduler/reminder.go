package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/studyhub/internal/entity"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	SubscriptionReminderJobName = "subscription_reminder"
	DefaultReminderSchedule     = "0 9 * * *"
	ReminderWindow              = 72 * time.Hour
)

// SubscriptionReminderJob warns subscribers whose access ends within
// ReminderWindow. Each user is reminded at most once per day when redis is
// available.
type SubscriptionReminderJob struct {
	subscriptions gamificationService.SubscriptionService
	notifier      gamificationService.Notifier
	redisClient   *redis.Client
	schedule      string
	clock         func() time.Time
}

func NewSubscriptionReminderJob(
	subscriptions gamificationService.SubscriptionService,
	notifier gamificationService.Notifier,
	redisClient *redis.Client,
	schedule string,
	clock func() time.Time,
) *SubscriptionReminderJob {
	if schedule == "" {
		schedule = DefaultReminderSchedule
	}
	if clock == nil {
		clock = time.Now
	}
	return &SubscriptionReminderJob{
		subscriptions: subscriptions,
		notifier:      notifier,
		redisClient:   redisClient,
		schedule:      schedule,
		clock:         clock,
	}
}

func (j *SubscriptionReminderJob) GetName() string { return SubscriptionReminderJobName }

func (j *SubscriptionReminderJob) GetSchedule() string { return j.schedule }

func reminderKey(userID uint, day string) string {
	return fmt.Sprintf("subscription_reminder:%d:%s", userID, day)
}

func (j *SubscriptionReminderJob) Execute(ctx context.Context) error {
	users, err := j.subscriptions.ExpiringWithin(ctx, ReminderWindow)
	if err != nil {
		return err
	}

	now := j.clock()
	day := now.Format(entity.DayLayout)

	var errs []error
	sent := 0
	for _, user := range users {
		if user.SubscriptionExpiresAt == nil {
			continue
		}

		if j.redisClient != nil {
			ok, err := j.redisClient.SetNX(ctx, reminderKey(user.ID, day), 1, 24*time.Hour).Result()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !ok {
				continue
			}
		}

		days := daysLeft(now, *user.SubscriptionExpiresAt)
		msg := fmt.Sprintf("Your subscription expires in %d day(s). Renew to keep unlimited AI features.", days)
		data := map[string]any{
			"expires_at": user.SubscriptionExpiresAt.UTC().Format(time.RFC3339),
			"days_left":  days,
		}
		if err := j.notifier.Notify(ctx, user.ID, entity.NotificationSubscriptionExpiring, msg, data); err != nil {
			zap.L().Warn("failed to send subscription reminder", zap.Uint("user_id", user.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		sent++
	}

	zap.L().Info("subscription reminders sent", zap.Int("candidates", len(users)), zap.Int("sent", sent))
	return errors.Join(errs...)
}

// daysLeft rounds up so that a subscription ending later today reads as 1.
func daysLeft(now, expiresAt time.Time) int {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
