package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"anoa.com/studyhub/internal/entity"
	notifRepo "anoa.com/studyhub/internal/modules/notification/repository"
	"anoa.com/studyhub/internal/modules/notification/service"
	"anoa.com/studyhub/internal/testutil"
	"anoa.com/studyhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"
)

func TestNotificationService(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	usr := testutil.CreateUser(t, db, "student@example.com", 0, 0)
	other := testutil.CreateUser(t, db, "other@example.com", 0, 0)

	svc := service.NewNotificationService(notifRepo.NewNotificationRepository(db), nil)

	require.NoError(t, svc.Notify(ctx, usr.ID, entity.NotificationLevelUp, "You reached level 2!", map[string]any{"level": 2}))
	require.NoError(t, svc.Notify(ctx, usr.ID, entity.NotificationMissionCompleted, "Mission completed", nil))
	require.NoError(t, svc.Notify(ctx, other.ID, entity.NotificationLevelUp, "You reached level 3!", nil))

	list, err := svc.GetNotifications(ctx, usr.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	var levelUp entity.Notification
	for _, n := range list {
		if n.Type == entity.NotificationLevelUp {
			levelUp = n
		}
	}
	require.NotEqual(t, uuid.Nil, levelUp.ID)
	level, ok := levelUp.Data["level"].(json.Number)
	require.True(t, ok, "level decoded as %T", levelUp.Data["level"])
	n, err := level.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := svc.UnreadCount(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// someone else's notification cannot be marked
	assert.ErrorIs(t, svc.MarkAsRead(ctx, other.ID, levelUp.ID), apperror.ErrNotFound)

	require.NoError(t, svc.MarkAsRead(ctx, usr.ID, levelUp.ID))
	count, _ = svc.UnreadCount(ctx, usr.ID)
	assert.Equal(t, int64(1), count)

	require.NoError(t, svc.MarkAllAsRead(ctx, usr.ID))
	count, _ = svc.UnreadCount(ctx, usr.ID)
	assert.Zero(t, count)

	otherCount, _ := svc.UnreadCount(ctx, other.ID)
	assert.Equal(t, int64(1), otherCount)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "user_notifications:42", service.Channel(42))
}

type memoryRepository struct {
	notifRepo.NotificationRepository
	created []*entity.Notification
}

func (r *memoryRepository) Create(_ context.Context, notification *entity.Notification) error {
	r.created = append(r.created, notification)
	return nil
}

func TestCreateNotification_UnencodablePayloadIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &memoryRepository{}
	svc := service.NewNotificationService(repo, rdb)

	err := svc.CreateNotification(context.Background(), &entity.Notification{
		UserID:  7,
		Type:    entity.NotificationLevelUp,
		Message: "You reached level 2!",
		Data:    datatypes.JSONMap{"broken": make(chan int)},
	})
	require.NoError(t, err)
	assert.Len(t, repo.created, 1)

	entries := logs.FilterMessage("failed to encode notification for publish").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 7, entries[0].ContextMap()["user_id"])
	assert.Zero(t, logs.FilterMessage("failed to publish notification").Len())
}
