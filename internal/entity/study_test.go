package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsRoundTrip(t *testing.T) {
	raw := JoinOptions([]string{" Nucleus ", "", "Mitochondria"})

	assert.Equal(t, "Nucleus\nMitochondria", raw)
	assert.Equal(t, []string{"Nucleus", "Mitochondria"}, SplitOptions(raw))
	assert.Empty(t, SplitOptions(""))
}

func TestExerciseQuestionIsCorrect(t *testing.T) {
	q := ExerciseQuestion{Answer: "Mitochondria"}

	tests := []struct {
		given string
		want  bool
	}{
		{"Mitochondria", true},
		{" mitochondria ", true},
		{"Nucleus", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, q.IsCorrect(tt.given), tt.given)
	}

	tf := ExerciseQuestion{Answer: "true"}
	assert.True(t, tf.IsCorrect("TRUE"))
	assert.False(t, tf.IsCorrect("false"))
}
