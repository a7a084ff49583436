package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"anoa.com/studyhub/internal/entity"
	gamificationRepo "anoa.com/studyhub/internal/modules/gamification/repository"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	"anoa.com/studyhub/internal/modules/mission/repository"
	"anoa.com/studyhub/internal/modules/mission/service"
	"anoa.com/studyhub/internal/testutil"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Sunday: quiz_1, quiz_3, true_false_1
var sunday = time.Date(2025, time.March, 9, 14, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu    sync.Mutex
	types []string
}

func (n *recordingNotifier) Notify(_ context.Context, _ uint, notifType, _ string, _ map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, notifType)
	return nil
}

type fixture struct {
	db       *gorm.DB
	notifier *recordingNotifier
	now      time.Time
	missions service.MissionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:       testutil.NewDB(t),
		notifier: &recordingNotifier{},
		now:      sunday,
	}
	clock := func() time.Time { return f.now }

	gRepo := gamificationRepo.NewGamificationRepository(f.db)
	tx := database.NewTransactor(f.db)
	points := gamificationService.NewPointsService(gRepo, tx, f.notifier)
	coins := gamificationService.NewCoinService(gRepo)

	f.missions = service.NewMissionService(
		repository.NewMissionRepository(f.db),
		service.DefaultCatalog(),
		points,
		coins,
		tx,
		f.notifier,
		clock,
	)
	return f
}

func (f *fixture) reload(t *testing.T, id uint) entity.User {
	t.Helper()
	var u entity.User
	require.NoError(t, f.db.First(&u, id).Error)
	return u
}

func (f *fixture) completeExercise(t *testing.T, userID uint, kind string, score int, at time.Time) {
	t.Helper()
	testutil.CreateExercise(t, f.db, &entity.Exercise{
		UserID:            userID,
		Kind:              kind,
		TotalQuestions:    5,
		LastScore:         testutil.IntPtr(score),
		BestScore:         testutil.IntPtr(score),
		CompletedAttempts: 1,
		LastCompletedAt:   testutil.TimePtr(at),
		CreatedAt:         at.AddDate(0, 0, -3),
	})
}

func mission(t *testing.T, id string) service.Mission {
	t.Helper()
	m, ok := service.DefaultCatalog().Find(id)
	require.True(t, ok, id)
	return m
}

func TestCheckMissionProgress_Exercises(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)
	other := testutil.CreateUser(t, f.db, "other@example.com", 0, 0)

	f.completeExercise(t, usr.ID, entity.ExerciseKindQuiz, 4, sunday.Add(-2*time.Hour))
	f.completeExercise(t, usr.ID, entity.ExerciseKindTrueFalse, 5, sunday.Add(-time.Hour))
	// yesterday does not count
	f.completeExercise(t, usr.ID, entity.ExerciseKindQuiz, 5, sunday.AddDate(0, 0, -1))
	// another student's quiz does not count
	f.completeExercise(t, other.ID, entity.ExerciseKindQuiz, 5, sunday)
	// legacy row without last_completed_at, created today and attempted
	testutil.CreateExercise(t, f.db, &entity.Exercise{
		UserID:            usr.ID,
		Kind:              entity.ExerciseKindQuiz,
		TotalQuestions:    5,
		LastScore:         testutil.IntPtr(2),
		CompletedAttempts: 1,
		CreatedAt:         sunday.Add(-3 * time.Hour),
	})
	// legacy row never attempted
	testutil.CreateExercise(t, f.db, &entity.Exercise{
		UserID:         usr.ID,
		Kind:           entity.ExerciseKindQuiz,
		TotalQuestions: 5,
		CreatedAt:      sunday.Add(-3 * time.Hour),
	})

	quiz3, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "quiz_3"))
	require.NoError(t, err)
	assert.Equal(t, 2, quiz3.Progress)
	assert.False(t, quiz3.Completed)
	assert.Nil(t, quiz3.CompletedAt)
	require.NotNil(t, quiz3.CoinReward)
	assert.Equal(t, 20, *quiz3.CoinReward)

	tf1, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "true_false_1"))
	require.NoError(t, err)
	assert.Equal(t, 1, tf1.Progress)

	// (4 + 5 + 2) * 10, clamped to the 100 target
	earn100, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "earn_100_points"))
	require.NoError(t, err)
	assert.Equal(t, 100, earn100.Progress)

	earn50, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "earn_50_points"))
	require.NoError(t, err)
	assert.Equal(t, 50, earn50.Progress)
}

func TestCheckMissionProgress_EarnPointsSum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)

	f.completeExercise(t, usr.ID, entity.ExerciseKindQuiz, 4, sunday.Add(-2*time.Hour))
	f.completeExercise(t, usr.ID, entity.ExerciseKindTrueFalse, 3, sunday.Add(-time.Hour))

	got, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "earn_100_points"))
	require.NoError(t, err)
	assert.Equal(t, 70, got.Progress)
}

func TestCheckMissionProgress_ClampedToTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)

	for i := 0; i < 5; i++ {
		f.completeExercise(t, usr.ID, entity.ExerciseKindQuiz, 3, sunday.Add(-time.Duration(i+1)*time.Minute))
	}

	got, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "quiz_3"))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Progress)
}

func TestCheckMissionProgress_Notes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)

	createdToday := sunday.Add(-4 * time.Hour)
	lastWeek := sunday.AddDate(0, 0, -7)

	// created today, never edited
	testutil.CreateNote(t, f.db, usr.ID, createdToday, createdToday)
	// created last week, edited today
	testutil.CreateNote(t, f.db, usr.ID, lastWeek, sunday.Add(-time.Hour))
	// created and edited last week
	testutil.CreateNote(t, f.db, usr.ID, lastWeek, lastWeek.Add(time.Hour))

	created, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "create_note"))
	require.NoError(t, err)
	assert.Equal(t, 1, created.Progress)

	edited, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "edit_note"))
	require.NoError(t, err)
	assert.Equal(t, 1, edited.Progress)
	require.NotNil(t, edited.CoinReward)
	assert.Equal(t, 2, *edited.CoinReward)
}

func TestCompleteMission_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)

	first, err := f.missions.CompleteMission(ctx, usr.ID, "create_note", 15)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.False(t, first.AlreadyCompleted)
	require.NotNil(t, first.CoinReward)
	assert.Equal(t, 3, *first.CoinReward)

	afterFirst := f.reload(t, usr.ID)
	assert.Equal(t, 15, afterFirst.Points)
	assert.Equal(t, 3, afterFirst.Coins)

	second, err := f.missions.CompleteMission(ctx, usr.ID, "create_note", 15)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.True(t, second.AlreadyCompleted)
	assert.Nil(t, second.CoinReward)

	afterSecond := f.reload(t, usr.ID)
	assert.Equal(t, afterFirst.Points, afterSecond.Points)
	assert.Equal(t, afterFirst.Coins, afterSecond.Coins)

	var count int64
	require.NoError(t, f.db.Model(&entity.MissionCompletion{}).Where("user_id = ?", usr.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCompleteMission_ResetsNextDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)

	_, err := f.missions.CompleteMission(ctx, usr.ID, "quiz_1", 20)
	require.NoError(t, err)

	progress, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "quiz_1"))
	require.NoError(t, err)
	assert.True(t, progress.Completed)
	require.NotNil(t, progress.CompletedAt)
	assert.Equal(t, "2025-03-09", *progress.CompletedAt)

	f.now = sunday.AddDate(0, 0, 1)
	progress, err = f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "quiz_1"))
	require.NoError(t, err)
	assert.False(t, progress.Completed)

	res, err := f.missions.CompleteMission(ctx, usr.ID, "quiz_1", 20)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 40, f.reload(t, usr.ID).Points)
}

func TestCompleteMission_UnknownUserRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.missions.CompleteMission(ctx, 404, "quiz_1", 20)
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&entity.MissionCompletion{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCompleteMission_Quiz3Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 20)

	for i := 0; i < 3; i++ {
		f.completeExercise(t, usr.ID, entity.ExerciseKindQuiz, 2, sunday.Add(-time.Duration(i+1)*time.Hour))
	}

	progress, err := f.missions.CheckMissionProgress(ctx, usr.ID, mission(t, "quiz_3"))
	require.NoError(t, err)
	assert.Equal(t, 3, progress.Progress)
	assert.False(t, progress.Completed)

	res, err := f.missions.CompleteMission(ctx, usr.ID, "quiz_3", 50)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadyCompleted)
	require.NotNil(t, res.CoinReward)
	assert.Equal(t, 20, *res.CoinReward)

	final := f.reload(t, usr.ID)
	assert.Equal(t, 50, final.Points)
	assert.Equal(t, 40, final.Coins)
	assert.Equal(t, 1, final.Level)

	assert.Contains(t, f.notifier.types, entity.NotificationMissionCompleted)
}

func TestClaimMission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 90, 0)

	// not in sunday's rotation
	_, err := f.missions.ClaimMission(ctx, usr.ID, "create_note")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.missions.ClaimMission(ctx, usr.ID, "quiz_1")
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.Equal(t, 90, f.reload(t, usr.ID).Points)

	f.completeExercise(t, usr.ID, entity.ExerciseKindQuiz, 5, sunday.Add(-time.Hour))

	res, err := f.missions.ClaimMission(ctx, usr.ID, "quiz_1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 20, res.PointsReward)
	require.NotNil(t, res.CoinReward)
	assert.Equal(t, 5, *res.CoinReward)

	stored := f.reload(t, usr.ID)
	assert.Equal(t, 110, stored.Points)
	assert.Equal(t, 2, stored.Level)
	assert.Equal(t, 5, stored.Coins)
	assert.ElementsMatch(t, []string{entity.NotificationLevelUp, entity.NotificationMissionCompleted}, f.notifier.types)

	_, err = f.missions.ClaimMission(ctx, usr.ID, "quiz_1")
	assert.ErrorIs(t, err, apperror.ErrAlreadyCompleted)
	assert.Equal(t, 110, f.reload(t, usr.ID).Points)
}

func TestTodayProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)

	f.completeExercise(t, usr.ID, entity.ExerciseKindTrueFalse, 5, sunday.Add(-time.Hour))

	progress, err := f.missions.TodayProgress(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, progress, 3)

	byID := map[string]service.MissionProgress{}
	for _, p := range progress {
		byID[p.Mission.ID] = p
	}
	assert.Equal(t, 0, byID["quiz_1"].Progress)
	assert.Equal(t, 0, byID["quiz_3"].Progress)
	assert.Equal(t, 1, byID["true_false_1"].Progress)
	assert.Equal(t, 5, byID["true_false_1"].Mission.CoinReward)
}

// staleReadRepository never sees an existing completion, like a request that
// lost the race against a concurrent claim.
type staleReadRepository struct {
	repository.MissionRepository
}

func (staleReadRepository) FindCompletion(context.Context, uint, string, string) (*entity.MissionCompletion, error) {
	return nil, nil
}

func TestCompleteMission_ConcurrentDuplicate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	usr := testutil.CreateUser(t, db, "student@example.com", 0, 0)

	require.NoError(t, db.Create(&entity.MissionCompletion{
		UserID:      usr.ID,
		MissionID:   "quiz_1",
		CompletedOn: sunday.Format(entity.DayLayout),
	}).Error)

	gRepo := gamificationRepo.NewGamificationRepository(db)
	tx := database.NewTransactor(db)
	notifier := &recordingNotifier{}
	missions := service.NewMissionService(
		staleReadRepository{repository.NewMissionRepository(db)},
		service.DefaultCatalog(),
		gamificationService.NewPointsService(gRepo, tx, notifier),
		gamificationService.NewCoinService(gRepo),
		tx,
		notifier,
		testutil.FixedClock(sunday),
	)

	res, err := missions.CompleteMission(ctx, usr.ID, "quiz_1", 20)
	require.NoError(t, err)
	assert.True(t, res.AlreadyCompleted)
	assert.False(t, res.Success)
	assert.Nil(t, res.CoinReward)

	var u entity.User
	require.NoError(t, db.First(&u, usr.ID).Error)
	assert.Zero(t, u.Points)
	assert.Zero(t, u.Coins)

	var logs int64
	require.NoError(t, db.Model(&entity.PointLog{}).Where("user_id = ?", usr.ID).Count(&logs).Error)
	assert.Zero(t, logs)

	var completions int64
	require.NoError(t, db.Model(&entity.MissionCompletion{}).Count(&completions).Error)
	assert.EqualValues(t, 1, completions)
	assert.Empty(t, notifier.types)
}
