package dto

import (
	"time"

	"anoa.com/studyhub/internal/entity"
	commonDto "anoa.com/studyhub/pkg/dto"
)

type QuestionInput struct {
	Prompt      string   `json:"prompt" binding:"required"`
	Options     []string `json:"options" binding:"omitempty,max=8,dive,required,max=255"`
	Answer      string   `json:"answer" binding:"required,max=255"`
	Explanation string   `json:"explanation"`
}

type CreateExerciseRequest struct {
	Kind       string          `json:"kind" binding:"required,oneof=quiz true_false"`
	Title      string          `json:"title" binding:"required,max=200"`
	Difficulty string          `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	NoteID     *uint           `json:"note_id"`
	Questions  []QuestionInput `json:"questions" binding:"required,min=1,max=50,dive"`
}

type GenerateExerciseRequest struct {
	Kind       string `json:"kind" binding:"required,oneof=quiz true_false"`
	Topic      string `json:"topic" binding:"required_without=NoteID,max=200"`
	NoteID     *uint  `json:"note_id"`
	Count      int    `json:"count" binding:"omitempty,min=1,max=20"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

type SubmitExerciseRequest struct {
	Answers []string `json:"answers" binding:"required"`
}

type ExerciseListQuery struct {
	commonDto.PageQuery
	Kind string `form:"kind" binding:"omitempty,oneof=quiz true_false"`
}

// QuestionResponse never carries the answer.
type QuestionResponse struct {
	ID       uint     `json:"id"`
	Position int      `json:"position"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
}

type ExerciseResponse struct {
	ID                uint               `json:"id"`
	Kind              string             `json:"kind"`
	Title             string             `json:"title"`
	Difficulty        string             `json:"difficulty"`
	NoteID            *uint              `json:"note_id,omitempty"`
	TotalQuestions    int                `json:"total_questions"`
	LastScore         *int               `json:"last_score"`
	BestScore         *int               `json:"best_score"`
	CompletedAttempts int                `json:"completed_attempts"`
	LastCompletedAt   *time.Time         `json:"last_completed_at"`
	AIGenerated       bool               `json:"ai_generated"`
	CreatedAt         time.Time          `json:"created_at"`
	Questions         []QuestionResponse `json:"questions,omitempty"`
}

type PaginatedExercisesResponse struct {
	Data []ExerciseResponse       `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

type GeneratedExerciseResponse struct {
	Exercise  *ExerciseResponse `json:"exercise"`
	CoinsUsed int               `json:"coins_used"`
}

type QuestionResult struct {
	QuestionID    uint   `json:"question_id"`
	Given         string `json:"given"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
}

type SubmitExerciseResponse struct {
	Score          int              `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	BestScore      int              `json:"best_score"`
	PointsEarned   int              `json:"points_earned"`
	NewPoints      int              `json:"new_points"`
	NewLevel       int              `json:"new_level"`
	LeveledUp      bool             `json:"leveled_up"`
	Results        []QuestionResult `json:"results"`
}

func ToExerciseResponse(ex *entity.Exercise) *ExerciseResponse {
	res := &ExerciseResponse{
		ID:                ex.ID,
		Kind:              ex.Kind,
		Title:             ex.Title,
		Difficulty:        ex.Difficulty,
		NoteID:            ex.NoteID,
		TotalQuestions:    ex.TotalQuestions,
		LastScore:         ex.LastScore,
		BestScore:         ex.BestScore,
		CompletedAttempts: ex.CompletedAttempts,
		LastCompletedAt:   ex.LastCompletedAt,
		AIGenerated:       ex.AIGenerated,
		CreatedAt:         ex.CreatedAt,
	}
	for _, q := range ex.Questions {
		res.Questions = append(res.Questions, QuestionResponse{
			ID:       q.ID,
			Position: q.Position,
			Prompt:   q.Prompt,
			Options:  questionOptions(ex.Kind, q),
		})
	}
	return res
}

func questionOptions(kind string, q entity.ExerciseQuestion) []string {
	if kind == entity.ExerciseKindTrueFalse {
		return []string{"true", "false"}
	}
	return entity.SplitOptions(q.Options)
}
