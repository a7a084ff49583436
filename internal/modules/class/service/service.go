package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/internal/modules/class/dto"
	"anoa.com/studyhub/internal/modules/class/repository"
	noteRepo "anoa.com/studyhub/internal/modules/note/repository"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"go.uber.org/zap"
)

// maxCodeAttempts bounds how many fresh codes are tried when one collides.
const maxCodeAttempts = 5

var (
	errClassNotFound = apperror.New(http.StatusNotFound, "class not found", apperror.ErrNotFound)
	errNoteNotFound  = apperror.New(http.StatusNotFound, "note not found", apperror.ErrNotFound)
	errNotMember     = apperror.New(http.StatusForbidden, "you are not a member of this class", apperror.ErrForbidden)
	errAlreadyMember = apperror.New(http.StatusBadRequest, "you are already a member of this class", apperror.ErrBadRequest)
)

type ClassService interface {
	CreateClass(ctx context.Context, userID uint, req dto.CreateClassRequest) (*dto.ClassResponse, error)
	ListMyClasses(ctx context.Context, userID uint) ([]dto.ClassResponse, error)
	JoinByCode(ctx context.Context, userID uint, req dto.JoinClassRequest) (*dto.ClassResponse, error)
	GetClass(ctx context.Context, userID, classID uint) (*dto.ClassDetailResponse, error)
	ShareNote(ctx context.Context, userID uint, req dto.ShareNoteRequest) error
}

type classService struct {
	repo  repository.ClassRepository
	notes noteRepo.NoteRepository
	tx    database.Transactor
	codes func() (string, error)
	clock func() time.Time
}

// NewClassService builds the class service. codes defaults to GenerateCode.
func NewClassService(
	repo repository.ClassRepository,
	notes noteRepo.NoteRepository,
	tx database.Transactor,
	codes func() (string, error),
	clock func() time.Time,
) ClassService {
	if codes == nil {
		codes = GenerateCode
	}
	if clock == nil {
		clock = time.Now
	}
	return &classService{
		repo:  repo,
		notes: notes,
		tx:    tx,
		codes: codes,
		clock: clock,
	}
}

// CreateClass stores the class under a fresh code and enrolls the creator.
func (s *classService) CreateClass(ctx context.Context, userID uint, req dto.CreateClassRequest) (*dto.ClassResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.New(http.StatusBadRequest, "class name is required", apperror.ErrInvalidInput)
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes()
		if err != nil {
			return nil, err
		}

		now := s.clock()
		class := &entity.Class{Name: name, Code: code, OwnerID: userID, CreatedAt: now}
		err = s.tx.Transaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, class); err != nil {
				return err
			}
			return s.repo.AddMember(ctx, &entity.ClassMember{UserID: userID, ClassID: class.ID, CreatedAt: now})
		})
		if errors.Is(err, apperror.ErrConflict) {
			zap.L().Debug("class code collision, retrying", zap.String("code", code), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		resp := toClassResponse(class, userID)
		return &resp, nil
	}

	return nil, fmt.Errorf("no free class code after %d attempts", maxCodeAttempts)
}

func (s *classService) ListMyClasses(ctx context.Context, userID uint) ([]dto.ClassResponse, error) {
	classes, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.ClassResponse, 0, len(classes))
	for i := range classes {
		resp = append(resp, toClassResponse(&classes[i], userID))
	}
	return resp, nil
}

// JoinByCode matches codes case-insensitively. Joining a class twice is a 400.
func (s *classService) JoinByCode(ctx context.Context, userID uint, req dto.JoinClassRequest) (*dto.ClassResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, apperror.New(http.StatusBadRequest, "class code is required", apperror.ErrInvalidInput)
	}

	class, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errClassNotFound
		}
		return nil, err
	}

	member, err := s.repo.IsMember(ctx, userID, class.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, errAlreadyMember
	}

	err = s.repo.AddMember(ctx, &entity.ClassMember{UserID: userID, ClassID: class.ID, CreatedAt: s.clock()})
	if errors.Is(err, apperror.ErrConflict) {
		return nil, errAlreadyMember
	}
	if err != nil {
		return nil, err
	}

	resp := toClassResponse(class, userID)
	return &resp, nil
}

// GetClass is visible to members only.
func (s *classService) GetClass(ctx context.Context, userID, classID uint) (*dto.ClassDetailResponse, error) {
	if err := s.requireMember(ctx, userID, classID); err != nil {
		return nil, err
	}

	class, err := s.repo.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errClassNotFound
		}
		return nil, err
	}

	ranking, err := s.repo.Ranking(ctx, classID)
	if err != nil {
		return nil, err
	}
	shared, err := s.repo.SharedNotes(ctx, classID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ClassDetailResponse{
		Class:   toClassResponse(class, userID),
		Ranking: make([]dto.MemberRankResponse, 0, len(ranking)),
		Notes:   make([]dto.SharedNoteResponse, 0, len(shared)),
	}
	for _, r := range ranking {
		resp.Ranking = append(resp.Ranking, dto.MemberRankResponse{
			UserID: r.UserID,
			Name:   r.Name,
			Points: r.Points,
			Level:  r.Level,
		})
	}
	for _, n := range shared {
		resp.Notes = append(resp.Notes, dto.SharedNoteResponse{
			NoteID:     n.NoteID,
			Title:      n.Title,
			AuthorID:   n.AuthorID,
			AuthorName: n.AuthorName,
			SharedAt:   n.SharedAt,
		})
	}
	return resp, nil
}

// ShareNote publishes one of the caller's notes into a class they belong to.
// Foreign notes answer 404 like missing ones.
func (s *classService) ShareNote(ctx context.Context, userID uint, req dto.ShareNoteRequest) error {
	note, err := s.notes.FindByID(ctx, req.NoteID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return errNoteNotFound
		}
		return err
	}
	if note.UserID != userID {
		return errNoteNotFound
	}

	if err := s.requireMember(ctx, userID, req.ClassID); err != nil {
		return err
	}

	if err := s.repo.ShareNote(ctx, note.ID, req.ClassID, s.clock()); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return errNoteNotFound
		}
		return err
	}
	return nil
}

func (s *classService) requireMember(ctx context.Context, userID, classID uint) error {
	member, err := s.repo.IsMember(ctx, userID, classID)
	if err != nil {
		return err
	}
	if !member {
		return errNotMember
	}
	return nil
}

func toClassResponse(class *entity.Class, userID uint) dto.ClassResponse {
	return dto.ClassResponse{
		ID:        class.ID,
		Name:      class.Name,
		Code:      class.Code,
		OwnerID:   class.OwnerID,
		IsCreator: class.OwnerID == userID,
		CreatedAt: class.CreatedAt,
	}
}
