package repository

import (
	"context"
	"errors"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"gorm.io/gorm"
)

type NoteFilter struct {
	Subject string
	Limit   int
	Offset  int
}

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	FindByID(ctx context.Context, id uint) (*entity.Note, error)
	FindByUser(ctx context.Context, userID uint, filter NoteFilter) ([]entity.Note, int64, error)
	Update(ctx context.Context, note *entity.Note) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *entity.Note) error {
	return database.Conn(ctx, r.db).Create(note).Error
}

func (r *noteRepository) FindByID(ctx context.Context, id uint) (*entity.Note, error) {
	var note entity.Note
	if err := database.Conn(ctx, r.db).First(&note, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) FindByUser(ctx context.Context, userID uint, filter NoteFilter) ([]entity.Note, int64, error) {
	query := database.Conn(ctx, r.db).Model(&entity.Note{}).Where("user_id = ?", userID)
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notes []entity.Note
	err := query.
		Order("updated_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&notes).Error
	if err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

// Update writes the editable columns; updated_at is taken from the note so
// callers control the edit time.
func (r *noteRepository) Update(ctx context.Context, note *entity.Note) error {
	res := database.Conn(ctx, r.db).Model(&entity.Note{}).
		Where("id = ?", note.ID).
		UpdateColumns(map[string]any{
			"title":      note.Title,
			"subject":    note.Subject,
			"content":    note.Content,
			"updated_at": note.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *noteRepository) Delete(ctx context.Context, id uint) error {
	res := database.Conn(ctx, r.db).Delete(&entity.Note{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *noteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := database.Conn(ctx, r.db).Model(&entity.Note{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
