package repository

import (
	"context"
	"time"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/pkg/database"
	"gorm.io/gorm"
)

// Score is a student's point total over some period.
type Score struct {
	UserID uint
	Score  int
}

type LeaderboardRepository interface {
	TopAllTime(ctx context.Context, limit int) ([]entity.User, error)
	TopSince(ctx context.Context, since time.Time, limit int) ([]Score, error)
	ScoresSince(ctx context.Context, userIDs []uint, since time.Time) (map[uint]int, error)
	FindUsers(ctx context.Context, userIDs []uint) (map[uint]entity.User, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

// TopAllTime ranks students by their running point total. Admins are not ranked.
func (r *leaderboardRepository) TopAllTime(ctx context.Context, limit int) ([]entity.User, error) {
	var users []entity.User
	err := database.Conn(ctx, r.db).
		Where("is_admin = ?", false).
		Order("points DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// TopSince ranks students by points logged at or after since.
func (r *leaderboardRepository) TopSince(ctx context.Context, since time.Time, limit int) ([]Score, error) {
	var scores []Score
	err := database.Conn(ctx, r.db).Model(&entity.PointLog{}).
		Select("point_logs.user_id, SUM(point_logs.points) AS score").
		Joins("JOIN users ON users.id = point_logs.user_id").
		Where("point_logs.created_at >= ? AND users.is_admin = ?", since, false).
		Group("point_logs.user_id").
		Order("score DESC").
		Order("point_logs.user_id ASC").
		Limit(limit).
		Scan(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *leaderboardRepository) ScoresSince(ctx context.Context, userIDs []uint, since time.Time) (map[uint]int, error) {
	result := make(map[uint]int, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var scores []Score
	err := database.Conn(ctx, r.db).Model(&entity.PointLog{}).
		Select("user_id, SUM(points) AS score").
		Where("user_id IN ? AND created_at >= ?", userIDs, since).
		Group("user_id").
		Scan(&scores).Error
	if err != nil {
		return nil, err
	}

	for _, s := range scores {
		result[s.UserID] = s.Score
	}
	return result, nil
}

func (r *leaderboardRepository) FindUsers(ctx context.Context, userIDs []uint) (map[uint]entity.User, error) {
	result := make(map[uint]entity.User, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var users []entity.User
	if err := database.Conn(ctx, r.db).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
