package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"anoa.com/studyhub/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	payload string
	err     error
	prompts []string
}

func (f *fakeProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.payload, f.err
}

func (f *fakeProvider) GenerateStructured(ctx context.Context, prompt string, output any) error {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.payload), output)
}

func (f *fakeProvider) Close() {}

func TestGenerateNote(t *testing.T) {
	p := &fakeProvider{payload: `{"title":" Osmosis ","content":"<p>Water moves.</p>"}`}
	g := NewGenerator(p)

	note, err := g.GenerateNote(context.Background(), "osmosis", "biology")

	require.NoError(t, err)
	assert.Equal(t, "Osmosis", note.Title)
	assert.Equal(t, "<p>Water moves.</p>", note.Content)
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "Topic: osmosis")
}

func TestGenerateNote_Empty(t *testing.T) {
	g := NewGenerator(&fakeProvider{payload: `{"title":"","content":""}`})

	_, err := g.GenerateNote(context.Background(), "x", "y")
	assert.Error(t, err)
}

func TestGenerateNote_ProviderError(t *testing.T) {
	boom := errors.New("quota exceeded")
	g := NewGenerator(&fakeProvider{err: boom})

	_, err := g.GenerateNote(context.Background(), "x", "y")
	assert.ErrorIs(t, err, boom)
}

func TestGenerateExercise_Quiz(t *testing.T) {
	p := &fakeProvider{payload: `{"title":"Cells","questions":[
		{"prompt":"Powerhouse?","options":["Nucleus","Mitochondria","Ribosome","Wall"],"answer":"Mitochondria","explanation":"ATP"},
		{"prompt":"Bad answer","options":["a","b"],"answer":"c"},
		{"prompt":"","options":["a","b"],"answer":"a"},
		{"prompt":"Largest organelle?","options":["Nucleus","Vacuole"],"answer":"Nucleus"}
	]}`}
	g := NewGenerator(p)

	ex, err := g.GenerateExercise(context.Background(), ExerciseRequest{
		Kind:       entity.ExerciseKindQuiz,
		Topic:      "cells",
		Count:      3,
		Difficulty: "easy",
	})

	require.NoError(t, err)
	assert.Equal(t, "Cells", ex.Title)
	require.Len(t, ex.Questions, 2)
	assert.Equal(t, "Mitochondria", ex.Questions[0].Answer)
	assert.Equal(t, "Largest organelle?", ex.Questions[1].Prompt)
	assert.Contains(t, p.prompts[0], "exactly 4 options")
}

func TestGenerateExercise_TrueFalse(t *testing.T) {
	p := &fakeProvider{payload: `{"title":"Facts","questions":[
		{"prompt":"The sun is a star","options":["yes","no"],"answer":"TRUE"},
		{"prompt":"Water boils at 50C","answer":"false"},
		{"prompt":"Maybe","answer":"perhaps"}
	]}`}
	g := NewGenerator(p)

	ex, err := g.GenerateExercise(context.Background(), ExerciseRequest{
		Kind:       entity.ExerciseKindTrueFalse,
		Topic:      "science",
		SourceText: "The sun is a star.",
	})

	require.NoError(t, err)
	require.Len(t, ex.Questions, 2)
	assert.Equal(t, "true", ex.Questions[0].Answer)
	assert.Equal(t, []string{"true", "false"}, ex.Questions[0].Options)
	assert.Equal(t, "false", ex.Questions[1].Answer)
	assert.Contains(t, p.prompts[0], "The sun is a star.")
	assert.Contains(t, p.prompts[0], "5 questions")
}

func TestGenerateExercise_NoUsableQuestions(t *testing.T) {
	g := NewGenerator(&fakeProvider{payload: `{"title":"x","questions":[{"prompt":"q","options":["a"],"answer":"b"}]}`})

	_, err := g.GenerateExercise(context.Background(), ExerciseRequest{Kind: entity.ExerciseKindQuiz, Topic: "x"})
	assert.Error(t, err)
}

func TestExercisePrompt_ClampsCount(t *testing.T) {
	p := &fakeProvider{payload: `{"title":"x","questions":[{"prompt":"q","answer":"true"}]}`}
	g := NewGenerator(p)

	_, err := g.GenerateExercise(context.Background(), ExerciseRequest{Kind: entity.ExerciseKindTrueFalse, Count: 500})
	require.NoError(t, err)
	assert.Contains(t, p.prompts[0], "20 questions")
}
