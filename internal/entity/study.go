package entity

import (
	"strings"
	"time"
)

const (
	ExerciseKindQuiz      = "quiz"
	ExerciseKindTrueFalse = "true_false"
)

type Note struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Subject     string     `gorm:"size:100" json:"subject"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	AIGenerated bool       `gorm:"not null;default:false" json:"ai_generated"`
	ClassID     *uint      `gorm:"index" json:"class_id,omitempty"`
	SharedAt    *time.Time `json:"shared_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"index" json:"updated_at"`
}

// Exercise is either a multiple choice quiz or a true/false set.
type Exercise struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	UserID            uint               `gorm:"index:idx_exercise_user_kind,priority:1;not null" json:"user_id"`
	User              User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	NoteID            *uint              `gorm:"index" json:"note_id,omitempty"`
	Kind              string             `gorm:"size:20;index:idx_exercise_user_kind,priority:2;not null" json:"kind"`
	Title             string             `gorm:"size:200;not null" json:"title"`
	Difficulty        string             `gorm:"size:20;not null;default:'medium'" json:"difficulty"`
	TotalQuestions    int                `gorm:"not null" json:"total_questions"`
	LastScore         *int               `json:"last_score"`
	BestScore         *int               `json:"best_score"`
	CompletedAttempts int                `gorm:"not null;default:0" json:"completed_attempts"`
	LastCompletedAt   *time.Time         `gorm:"index" json:"last_completed_at"`
	AIGenerated       bool               `gorm:"not null;default:false" json:"ai_generated"`
	CreatedAt         time.Time          `json:"created_at"`
	Questions         []ExerciseQuestion `gorm:"foreignKey:ExerciseID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// ExerciseQuestion stores Options as a newline separated list; true/false
// questions have no options and Answer is "true" or "false".
type ExerciseQuestion struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ExerciseID  uint   `gorm:"index;not null" json:"exercise_id"`
	Position    int    `gorm:"not null" json:"position"`
	Prompt      string `gorm:"type:text;not null" json:"prompt"`
	Options     string `gorm:"type:text" json:"-"`
	Answer      string `gorm:"size:255;not null" json:"-"`
	Explanation string `gorm:"type:text" json:"explanation,omitempty"`
}

func JoinOptions(options []string) string {
	cleaned := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	return strings.Join(cleaned, "\n")
}

func SplitOptions(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, "\n")
}

// IsCorrect compares an answer ignoring case and surrounding space.
func (q ExerciseQuestion) IsCorrect(given string) bool {
	given = strings.TrimSpace(given)
	return given != "" && strings.EqualFold(given, strings.TrimSpace(q.Answer))
}
