package dto

type AwardPointsInput struct {
	Points int    `json:"points" binding:"required,min=1,max=100000"`
	Reason string `json:"reason" binding:"max=64"`
}

type AddCoinsInput struct {
	Coins int `json:"coins" binding:"required,min=1,max=100000"`
}

type BalanceResponse struct {
	UserID    uint `json:"user_id"`
	Points    int  `json:"points"`
	Level     int  `json:"level"`
	Coins     int  `json:"coins"`
	LeveledUp bool `json:"leveled_up"`
}
