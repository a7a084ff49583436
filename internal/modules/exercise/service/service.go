package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/studyhub/internal/ai"
	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/internal/modules/exercise/dto"
	"anoa.com/studyhub/internal/modules/exercise/repository"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	noteRepo "anoa.com/studyhub/internal/modules/note/repository"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	commonDto "anoa.com/studyhub/pkg/dto"
	"anoa.com/studyhub/pkg/ratelimit"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PointsPerCorrectAnswer is what each correct answer is worth on submit.
const PointsPerCorrectAnswer = 10

const defaultDifficulty = "medium"

var (
	errExerciseNotFound = apperror.New(http.StatusNotFound, "exercise not found", apperror.ErrNotFound)
	errAIDisabled       = apperror.New(http.StatusServiceUnavailable, "AI generation is not configured", apperror.ErrUnavailable)
	errAIFailed         = apperror.New(http.StatusBadGateway, "AI generation failed, please try again", apperror.ErrUnavailable)
)

type ExerciseService interface {
	ListExercises(ctx context.Context, userID uint, query dto.ExerciseListQuery) (*dto.PaginatedExercisesResponse, error)
	GetExercise(ctx context.Context, userID, exerciseID uint) (*dto.ExerciseResponse, error)
	CreateExercise(ctx context.Context, userID uint, req dto.CreateExerciseRequest) (*dto.ExerciseResponse, error)
	GenerateExercise(ctx context.Context, userID uint, req dto.GenerateExerciseRequest) (*dto.GeneratedExerciseResponse, error)
	SubmitExercise(ctx context.Context, userID, exerciseID uint, req dto.SubmitExerciseRequest) (*dto.SubmitExerciseResponse, error)
	DeleteExercise(ctx context.Context, userID, exerciseID uint) error
}

type exerciseService struct {
	repo       repository.ExerciseRepository
	notes      noteRepo.NoteRepository
	points     gamificationService.PointsService
	access     gamificationService.AccessService
	generator  ai.Generator
	tx         database.Transactor
	redis      *redis.Client
	aiCooldown time.Duration
	textPolicy *bluemonday.Policy
	clock      func() time.Time
}

func NewExerciseService(
	repo repository.ExerciseRepository,
	notes noteRepo.NoteRepository,
	points gamificationService.PointsService,
	access gamificationService.AccessService,
	generator ai.Generator,
	tx database.Transactor,
	redisClient *redis.Client,
	aiCooldown time.Duration,
	clock func() time.Time,
) ExerciseService {
	if clock == nil {
		clock = time.Now
	}
	return &exerciseService{
		repo:       repo,
		notes:      notes,
		points:     points,
		access:     access,
		generator:  generator,
		tx:         tx,
		redis:      redisClient,
		aiCooldown: aiCooldown,
		textPolicy: bluemonday.StrictPolicy(),
		clock:      clock,
	}
}

func (s *exerciseService) ListExercises(ctx context.Context, userID uint, query dto.ExerciseListQuery) (*dto.PaginatedExercisesResponse, error) {
	page := query.PageQuery.Normalize()

	exercises, total, err := s.repo.FindByUser(ctx, userID, repository.ExerciseFilter{
		Kind:   query.Kind,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		return nil, err
	}

	data := make([]dto.ExerciseResponse, 0, len(exercises))
	for i := range exercises {
		data = append(data, *dto.ToExerciseResponse(&exercises[i]))
	}
	return &dto.PaginatedExercisesResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(page, total),
	}, nil
}

func (s *exerciseService) GetExercise(ctx context.Context, userID, exerciseID uint) (*dto.ExerciseResponse, error) {
	exercise, err := s.repo.FindWithQuestions(ctx, exerciseID)
	if err != nil {
		return nil, notFound(err)
	}
	if exercise.UserID != userID {
		return nil, errExerciseNotFound
	}
	return dto.ToExerciseResponse(exercise), nil
}

func (s *exerciseService) CreateExercise(ctx context.Context, userID uint, req dto.CreateExerciseRequest) (*dto.ExerciseResponse, error) {
	if req.NoteID != nil {
		if _, err := s.ownedNote(ctx, userID, *req.NoteID); err != nil {
			return nil, err
		}
	}

	questions := make([]entity.ExerciseQuestion, 0, len(req.Questions))
	for i, in := range req.Questions {
		q, err := buildQuestion(req.Kind, i+1, in.Prompt, in.Options, in.Answer, in.Explanation)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	exercise := &entity.Exercise{
		UserID:         userID,
		NoteID:         req.NoteID,
		Kind:           req.Kind,
		Title:          strings.TrimSpace(req.Title),
		Difficulty:     difficultyOrDefault(req.Difficulty),
		TotalQuestions: len(questions),
		CreatedAt:      s.clock(),
		Questions:      questions,
	}
	if err := s.repo.Create(ctx, exercise); err != nil {
		return nil, err
	}
	return dto.ToExerciseResponse(exercise), nil
}

func (s *exerciseService) GenerateExercise(ctx context.Context, userID uint, req dto.GenerateExerciseRequest) (*dto.GeneratedExerciseResponse, error) {
	if s.generator == nil {
		return nil, errAIDisabled
	}

	feature := gamificationService.FeatureGenerateQuiz
	if req.Kind == entity.ExerciseKindTrueFalse {
		feature = gamificationService.FeatureGenerateTrueFalse
	}

	genReq := ai.ExerciseRequest{
		Kind:       req.Kind,
		Topic:      strings.TrimSpace(req.Topic),
		Count:      req.Count,
		Difficulty: difficultyOrDefault(req.Difficulty),
	}
	if req.NoteID != nil {
		note, err := s.ownedNote(ctx, userID, *req.NoteID)
		if err != nil {
			return nil, err
		}
		genReq.SourceText = s.textPolicy.Sanitize(note.Content)
		if genReq.Topic == "" {
			genReq.Topic = note.Title
		}
	}

	release, err := ratelimit.Acquire(ctx, s.redis, userID, ratelimit.ActionAIGenerate, s.aiCooldown)
	if err != nil {
		return nil, err
	}

	charge, err := s.access.Charge(ctx, userID, feature)
	if err != nil {
		release()
		return nil, err
	}

	generated, err := s.generator.GenerateExercise(ctx, genReq)
	if err != nil {
		zap.L().Warn("ai exercise generation failed",
			zap.Uint("user_id", userID),
			zap.String("kind", req.Kind),
			zap.Error(err),
		)
		s.refund(ctx, charge)
		release()
		return nil, errAIFailed
	}

	exercise, err := s.saveGenerated(ctx, userID, req.NoteID, genReq, generated)
	if err != nil {
		s.refund(ctx, charge)
		release()
		return nil, err
	}

	coinsUsed := 0
	if charge.Charged {
		coinsUsed = charge.Cost
	}
	return &dto.GeneratedExerciseResponse{
		Exercise:  dto.ToExerciseResponse(exercise),
		CoinsUsed: coinsUsed,
	}, nil
}

func (s *exerciseService) saveGenerated(ctx context.Context, userID uint, noteID *uint, req ai.ExerciseRequest, generated *ai.GeneratedExercise) (*entity.Exercise, error) {
	questions := make([]entity.ExerciseQuestion, 0, len(generated.Questions))
	for i, g := range generated.Questions {
		q, err := buildQuestion(req.Kind, i+1, g.Prompt, g.Options, g.Answer, g.Explanation)
		if err != nil {
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, errAIFailed
	}

	title := generated.Title
	if title == "" {
		title = req.Topic
	}

	exercise := &entity.Exercise{
		UserID:         userID,
		NoteID:         noteID,
		Kind:           req.Kind,
		Title:          title,
		Difficulty:     req.Difficulty,
		TotalQuestions: len(questions),
		AIGenerated:    true,
		CreatedAt:      s.clock(),
		Questions:      questions,
	}
	if err := s.repo.Create(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// SubmitExercise grades the answers, updates the exercise scoreboard and
// awards points in a single transaction.
func (s *exerciseService) SubmitExercise(ctx context.Context, userID, exerciseID uint, req dto.SubmitExerciseRequest) (*dto.SubmitExerciseResponse, error) {
	var res *dto.SubmitExerciseResponse
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		exercise, err := s.repo.FindForUpdate(ctx, exerciseID)
		if err != nil {
			return notFound(err)
		}
		if exercise.UserID != userID {
			return errExerciseNotFound
		}
		if len(req.Answers) > len(exercise.Questions) {
			return apperror.New(http.StatusBadRequest,
				fmt.Sprintf("too many answers: exercise has %d questions", len(exercise.Questions)),
				apperror.ErrBadRequest)
		}

		res = grade(exercise, req.Answers)

		best := res.Score
		if exercise.BestScore != nil && *exercise.BestScore > best {
			best = *exercise.BestScore
		}
		res.BestScore = best

		err = s.repo.RecordAttempt(ctx, exercise.ID, repository.Attempt{
			LastScore:         res.Score,
			BestScore:         best,
			CompletedAttempts: exercise.CompletedAttempts + 1,
			CompletedAt:       s.clock(),
		})
		if err != nil {
			return err
		}

		award, err := s.points.AwardPointsFor(ctx, userID, res.PointsEarned, gamificationService.PointRef{
			ActionType:     entity.ActionExerciseCompleted,
			ReferenceID:    fmt.Sprint(exercise.ID),
			ReferenceTable: "exercises",
		})
		if err != nil {
			return err
		}
		res.NewPoints = award.NewPoints
		res.NewLevel = award.NewLevel
		res.LeveledUp = award.LeveledUp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *exerciseService) DeleteExercise(ctx context.Context, userID, exerciseID uint) error {
	exercise, err := s.repo.FindByID(ctx, exerciseID)
	if err != nil {
		return notFound(err)
	}
	if exercise.UserID != userID {
		return errExerciseNotFound
	}
	return notFound(s.repo.Delete(ctx, exerciseID))
}

func (s *exerciseService) ownedNote(ctx context.Context, userID, noteID uint) (*entity.Note, error) {
	note, err := s.notes.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.New(http.StatusNotFound, "note not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	if note.UserID != userID {
		return nil, apperror.New(http.StatusNotFound, "note not found", apperror.ErrNotFound)
	}
	return note, nil
}

func (s *exerciseService) refund(ctx context.Context, charge *gamificationService.ChargeResult) {
	if err := s.access.Refund(context.WithoutCancel(ctx), charge); err != nil {
		zap.L().Error("failed to refund ai charge",
			zap.Uint("user_id", charge.UserID),
			zap.String("feature", charge.Feature),
			zap.Error(err),
		)
	}
}

// grade scores answers by position; missing answers count as wrong.
func grade(exercise *entity.Exercise, answers []string) *dto.SubmitExerciseResponse {
	res := &dto.SubmitExerciseResponse{
		TotalQuestions: len(exercise.Questions),
		Results:        make([]dto.QuestionResult, 0, len(exercise.Questions)),
	}
	for i, q := range exercise.Questions {
		var given string
		if i < len(answers) {
			given = strings.TrimSpace(answers[i])
		}
		correct := q.IsCorrect(given)
		if correct {
			res.Score++
		}
		res.Results = append(res.Results, dto.QuestionResult{
			QuestionID:    q.ID,
			Given:         given,
			Correct:       correct,
			CorrectAnswer: q.Answer,
			Explanation:   q.Explanation,
		})
	}
	res.PointsEarned = res.Score * PointsPerCorrectAnswer
	return res
}

func buildQuestion(kind string, position int, prompt string, options []string, answer, explanation string) (entity.ExerciseQuestion, error) {
	prompt = strings.TrimSpace(prompt)
	answer = strings.TrimSpace(answer)
	if prompt == "" {
		return entity.ExerciseQuestion{}, invalidQuestion(position, "prompt is empty")
	}

	q := entity.ExerciseQuestion{
		Position:    position,
		Prompt:      prompt,
		Explanation: strings.TrimSpace(explanation),
	}

	if kind == entity.ExerciseKindTrueFalse {
		answer = strings.ToLower(answer)
		if answer != "true" && answer != "false" {
			return entity.ExerciseQuestion{}, invalidQuestion(position, `answer must be "true" or "false"`)
		}
		q.Answer = answer
		return q, nil
	}

	joined := entity.JoinOptions(options)
	opts := entity.SplitOptions(joined)
	if len(opts) < 2 {
		return entity.ExerciseQuestion{}, invalidQuestion(position, "needs at least 2 options")
	}
	found := false
	for _, o := range opts {
		if o == answer {
			found = true
			break
		}
	}
	if !found {
		return entity.ExerciseQuestion{}, invalidQuestion(position, "answer must be one of the options")
	}
	q.Options = joined
	q.Answer = answer
	return q, nil
}

func invalidQuestion(position int, reason string) error {
	return apperror.New(http.StatusBadRequest, fmt.Sprintf("question %d: %s", position, reason), apperror.ErrInvalidInput)
}

func difficultyOrDefault(d string) string {
	if d == "" {
		return defaultDifficulty
	}
	return d
}

func notFound(err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return errExerciseNotFound
	}
	return err
}
