package ai

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/studyhub/internal/entity"
)

const (
	MaxQuestions     = 20
	DefaultQuestions = 5
	maxSourceChars   = 12000
)

var trueFalseOptions = []string{"true", "false"}

type GeneratedNote struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type GeneratedQuestion struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

type GeneratedExercise struct {
	Title     string              `json:"title"`
	Questions []GeneratedQuestion `json:"questions"`
}

type ExerciseRequest struct {
	Kind       string
	Topic      string
	SourceText string
	Count      int
	Difficulty string
}

// Generator produces study material for notes and exercises.
type Generator interface {
	GenerateNote(ctx context.Context, topic, subject string) (*GeneratedNote, error)
	GenerateExercise(ctx context.Context, req ExerciseRequest) (*GeneratedExercise, error)
}

type generator struct {
	provider Provider
}

func NewGenerator(provider Provider) Generator {
	return &generator{provider: provider}
}

func (g *generator) GenerateNote(ctx context.Context, topic, subject string) (*GeneratedNote, error) {
	prompt := fmt.Sprintf(`
You are a patient tutor writing revision notes for a student.

Topic: %s
Subject: %s

Instructions:
1. Write a clear title.
2. Explain the topic in short sections a student can review in five minutes.
3. USE HTML for the content. Allowed tags: <h2>, <h3>, <p>, <strong>, <em>, <ul>, <ol>, <li>, <blockquote>. Do not use Markdown.
4. Finish with a short summary list of the key points.
5. The output MUST be JSON: {"title": "Title", "content": "HTML content"}
`, topic, subject)

	var note GeneratedNote
	if err := g.provider.GenerateStructured(ctx, prompt, &note); err != nil {
		return nil, err
	}

	note.Title = strings.TrimSpace(note.Title)
	if note.Title == "" || strings.TrimSpace(note.Content) == "" {
		return nil, fmt.Errorf("generated note is empty")
	}
	return &note, nil
}

func (g *generator) GenerateExercise(ctx context.Context, req ExerciseRequest) (*GeneratedExercise, error) {
	if req.Count <= 0 {
		req.Count = DefaultQuestions
	}
	if req.Count > MaxQuestions {
		req.Count = MaxQuestions
	}

	var ex GeneratedExercise
	if err := g.provider.GenerateStructured(ctx, exercisePrompt(req), &ex); err != nil {
		return nil, err
	}

	if err := normalizeExercise(req.Kind, &ex); err != nil {
		return nil, err
	}
	if len(ex.Questions) > req.Count {
		ex.Questions = ex.Questions[:req.Count]
	}
	return &ex, nil
}

func exercisePrompt(req ExerciseRequest) string {
	var format string
	switch req.Kind {
	case entity.ExerciseKindTrueFalse:
		format = `Each question is a statement that is either true or false.
"options" MUST be ["true", "false"] and "answer" MUST be "true" or "false".`
	default:
		format = `Each question is multiple choice with exactly 4 options.
"answer" MUST be copied exactly from one of the options.`
	}

	var source string
	if req.SourceText != "" {
		text := req.SourceText
		if len(text) > maxSourceChars {
			text = text[:maxSourceChars]
		}
		source = fmt.Sprintf("\nBase every question on this study note:\n%s\n", text)
	}

	return fmt.Sprintf(`
You are a teacher preparing a %s exercise with %d questions at %s difficulty.

Topic: %s
%s
%s
Add a one sentence explanation for every answer.
The output MUST be JSON: {"title": "Exercise title", "questions": [{"prompt": "...", "options": ["..."], "answer": "...", "explanation": "..."}]}
`, req.Kind, req.Count, req.Difficulty, req.Topic, source, format)
}

// normalizeExercise drops malformed questions and fails when none remain.
func normalizeExercise(kind string, ex *GeneratedExercise) error {
	ex.Title = strings.TrimSpace(ex.Title)

	valid := make([]GeneratedQuestion, 0, len(ex.Questions))
	for _, q := range ex.Questions {
		q.Prompt = strings.TrimSpace(q.Prompt)
		q.Answer = strings.TrimSpace(q.Answer)
		if q.Prompt == "" {
			continue
		}

		if kind == entity.ExerciseKindTrueFalse {
			q.Answer = strings.ToLower(q.Answer)
			if q.Answer != "true" && q.Answer != "false" {
				continue
			}
			q.Options = trueFalseOptions
			valid = append(valid, q)
			continue
		}

		if len(q.Options) < 2 || !containsOption(q.Options, q.Answer) {
			continue
		}
		valid = append(valid, q)
	}

	if len(valid) == 0 {
		return fmt.Errorf("generated exercise has no usable questions")
	}
	ex.Questions = valid
	return nil
}

func containsOption(options []string, answer string) bool {
	for _, o := range options {
		if strings.TrimSpace(o) == answer {
			return true
		}
	}
	return false
}
