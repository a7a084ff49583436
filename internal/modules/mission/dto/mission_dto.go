package dto

type CompleteMissionRequest struct {
	MissionID string `json:"mission_id" binding:"required,max=50"`
}

type CompleteMissionResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	PointsReward int    `json:"points_reward"`
	CoinReward   *int   `json:"coin_reward,omitempty"`
}
