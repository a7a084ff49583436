package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/studyhub/internal/ai"
	"anoa.com/studyhub/internal/entity"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	"anoa.com/studyhub/internal/modules/note/dto"
	"anoa.com/studyhub/internal/modules/note/repository"
	searchService "anoa.com/studyhub/internal/modules/search/service"
	"anoa.com/studyhub/pkg/apperror"
	commonDto "anoa.com/studyhub/pkg/dto"
	"anoa.com/studyhub/pkg/ratelimit"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	errAIDisabled   = apperror.New(http.StatusServiceUnavailable, "AI generation is not configured", apperror.ErrUnavailable)
	errAIFailed     = apperror.New(http.StatusBadGateway, "AI generation failed, please try again", apperror.ErrUnavailable)
	errNoteNotFound = apperror.New(http.StatusNotFound, "note not found", apperror.ErrNotFound)
)

type NoteService interface {
	ListNotes(ctx context.Context, userID uint, query dto.NoteListQuery) (*dto.PaginatedNotesResponse, error)
	GetNote(ctx context.Context, userID, noteID uint) (*entity.Note, error)
	CreateNote(ctx context.Context, userID uint, req dto.CreateNoteRequest) (*entity.Note, error)
	GenerateNote(ctx context.Context, userID uint, req dto.GenerateNoteRequest) (*dto.GeneratedNoteResponse, error)
	UpdateNote(ctx context.Context, userID, noteID uint, req dto.UpdateNoteRequest) (*entity.Note, error)
	DeleteNote(ctx context.Context, userID, noteID uint) error
	AdminDeleteNote(ctx context.Context, noteID uint) error
	SearchToken(ctx context.Context, userID uint) (*dto.SearchTokenResponse, error)
}

type noteService struct {
	repo       repository.NoteRepository
	access     gamificationService.AccessService
	generator  ai.Generator
	search     searchService.SearchService
	redis      *redis.Client
	aiCooldown time.Duration
	sanitizer  *bluemonday.Policy
	clock      func() time.Time
}

// NewNoteService builds the note service. generator, search and redisClient
// are optional; without a generator AI notes answer 503.
func NewNoteService(
	repo repository.NoteRepository,
	access gamificationService.AccessService,
	generator ai.Generator,
	search searchService.SearchService,
	redisClient *redis.Client,
	aiCooldown time.Duration,
	clock func() time.Time,
) NoteService {
	if clock == nil {
		clock = time.Now
	}
	return &noteService{
		repo:       repo,
		access:     access,
		generator:  generator,
		search:     search,
		redis:      redisClient,
		aiCooldown: aiCooldown,
		sanitizer:  bluemonday.UGCPolicy(),
		clock:      clock,
	}
}

func (s *noteService) ListNotes(ctx context.Context, userID uint, query dto.NoteListQuery) (*dto.PaginatedNotesResponse, error) {
	page := query.PageQuery.Normalize()

	notes, total, err := s.repo.FindByUser(ctx, userID, repository.NoteFilter{
		Subject: strings.TrimSpace(query.Subject),
		Limit:   page.Limit,
		Offset:  page.Offset(),
	})
	if err != nil {
		return nil, err
	}

	return &dto.PaginatedNotesResponse{
		Data: notes,
		Meta: commonDto.NewPaginationMeta(page, total),
	}, nil
}

// GetNote hides other students' notes behind a 404.
func (s *noteService) GetNote(ctx context.Context, userID, noteID uint) (*entity.Note, error) {
	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errNoteNotFound
		}
		return nil, err
	}
	if note.UserID != userID {
		return nil, errNoteNotFound
	}
	return note, nil
}

func (s *noteService) CreateNote(ctx context.Context, userID uint, req dto.CreateNoteRequest) (*entity.Note, error) {
	content := s.sanitizer.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		return nil, apperror.New(http.StatusBadRequest, "note content is empty", apperror.ErrInvalidInput)
	}

	now := s.clock()
	note := &entity.Note{
		UserID:    userID,
		Title:     strings.TrimSpace(req.Title),
		Subject:   strings.TrimSpace(req.Subject),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}

	s.index(note)
	return note, nil
}

func (s *noteService) GenerateNote(ctx context.Context, userID uint, req dto.GenerateNoteRequest) (*dto.GeneratedNoteResponse, error) {
	if s.generator == nil {
		return nil, errAIDisabled
	}

	release, err := ratelimit.Acquire(ctx, s.redis, userID, ratelimit.ActionAIGenerate, s.aiCooldown)
	if err != nil {
		return nil, err
	}

	charge, err := s.access.Charge(ctx, userID, gamificationService.FeatureGenerateNote)
	if err != nil {
		release()
		return nil, err
	}

	generated, err := s.generator.GenerateNote(ctx, req.Topic, req.Subject)
	if err != nil {
		zap.L().Warn("ai note generation failed", zap.Uint("user_id", userID), zap.Error(err))
		s.refund(ctx, charge)
		release()
		return nil, errAIFailed
	}

	now := s.clock()
	note := &entity.Note{
		UserID:      userID,
		Title:       generated.Title,
		Subject:     strings.TrimSpace(req.Subject),
		Content:     s.sanitizer.Sanitize(generated.Content),
		AIGenerated: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		s.refund(ctx, charge)
		release()
		return nil, err
	}

	s.index(note)

	coinsUsed := 0
	if charge.Charged {
		coinsUsed = charge.Cost
	}
	return &dto.GeneratedNoteResponse{Note: note, CoinsUsed: coinsUsed}, nil
}

func (s *noteService) UpdateNote(ctx context.Context, userID, noteID uint, req dto.UpdateNoteRequest) (*entity.Note, error) {
	note, err := s.GetNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		note.Title = strings.TrimSpace(*req.Title)
	}
	if req.Subject != nil {
		note.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Content != nil {
		content := s.sanitizer.Sanitize(*req.Content)
		if strings.TrimSpace(content) == "" {
			return nil, apperror.New(http.StatusBadRequest, "note content is empty", apperror.ErrInvalidInput)
		}
		note.Content = content
	}
	note.UpdatedAt = s.clock()

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}

	s.index(note)
	return note, nil
}

func (s *noteService) DeleteNote(ctx context.Context, userID, noteID uint) error {
	if _, err := s.GetNote(ctx, userID, noteID); err != nil {
		return err
	}
	return s.AdminDeleteNote(ctx, noteID)
}

func (s *noteService) AdminDeleteNote(ctx context.Context, noteID uint) error {
	if err := s.repo.Delete(ctx, noteID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return errNoteNotFound
		}
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteNote(noteID); err != nil {
			zap.L().Warn("failed to remove note from search index", zap.Uint("note_id", noteID), zap.Error(err))
		}
	}
	return nil
}

func (s *noteService) SearchToken(ctx context.Context, userID uint) (*dto.SearchTokenResponse, error) {
	if s.search == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "search is not configured", apperror.ErrUnavailable)
	}

	token, err := s.search.GenerateSearchToken(userID)
	if err != nil {
		return nil, err
	}
	return &dto.SearchTokenResponse{Token: token, Index: searchService.NotesIndex}, nil
}

// index failures are logged only; the note is already saved.
func (s *noteService) index(note *entity.Note) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexNote(note); err != nil {
		zap.L().Warn("failed to index note", zap.Uint("note_id", note.ID), zap.Error(err))
	}
}

func (s *noteService) refund(ctx context.Context, charge *gamificationService.ChargeResult) {
	if err := s.access.Refund(context.WithoutCancel(ctx), charge); err != nil {
		zap.L().Error("failed to refund ai charge",
			zap.Uint("user_id", charge.UserID),
			zap.String("feature", charge.Feature),
			zap.Error(err),
		)
	}
}
