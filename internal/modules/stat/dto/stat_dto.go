package dto

import userRepo "anoa.com/studyhub/internal/modules/user/repository"

type StatsResponse struct {
	TotalUsers        int64                 `json:"total_users"`
	TotalNotes        int64                 `json:"total_notes"`
	TotalExercises    int64                 `json:"total_exercises"`
	TotalPurchases    int64                 `json:"total_purchases"`
	Subscriptions     int64                 `json:"subscriptions_sold"`
	CoinsSold         int64                 `json:"coins_sold"`
	Revenue           string                `json:"revenue"`
	Currency          string                `json:"currency"`
	LevelDistribution []userRepo.LevelCount `json:"level_distribution"`
}
