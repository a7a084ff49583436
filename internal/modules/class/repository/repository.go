package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"gorm.io/gorm"
)

// MemberRank is one row of a class ranking.
type MemberRank struct {
	UserID uint
	Name   string
	Points int
	Level  int
}

// SharedNote is a note shared into a class together with its author.
type SharedNote struct {
	NoteID     uint
	Title      string
	AuthorID   uint
	AuthorName string
	SharedAt   time.Time
}

type ClassRepository interface {
	// Create returns apperror.ErrConflict when the code is already taken.
	Create(ctx context.Context, class *entity.Class) error
	FindByID(ctx context.Context, id uint) (*entity.Class, error)
	FindByCode(ctx context.Context, code string) (*entity.Class, error)
	ListForUser(ctx context.Context, userID uint) ([]entity.Class, error)
	// AddMember returns apperror.ErrConflict when the user already belongs to the class.
	AddMember(ctx context.Context, member *entity.ClassMember) error
	IsMember(ctx context.Context, userID, classID uint) (bool, error)
	Ranking(ctx context.Context, classID uint) ([]MemberRank, error)
	ShareNote(ctx context.Context, noteID, classID uint, sharedAt time.Time) error
	SharedNotes(ctx context.Context, classID uint) ([]SharedNote, error)
}

type classRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *entity.Class) error {
	if err := database.Conn(ctx, r.db).Create(class).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperror.ErrConflict
		}
		return err
	}
	return nil
}

func (r *classRepository) FindByID(ctx context.Context, id uint) (*entity.Class, error) {
	var class entity.Class
	if err := database.Conn(ctx, r.db).First(&class, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) FindByCode(ctx context.Context, code string) (*entity.Class, error) {
	var class entity.Class
	if err := database.Conn(ctx, r.db).Where("code = ?", code).First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &class, nil
}

// ListForUser returns the classes the user belongs to, newest first.
func (r *classRepository) ListForUser(ctx context.Context, userID uint) ([]entity.Class, error) {
	var classes []entity.Class
	err := database.Conn(ctx, r.db).
		Joins("JOIN class_members ON class_members.class_id = classes.id").
		Where("class_members.user_id = ?", userID).
		Order("classes.created_at DESC").
		Order("classes.id DESC").
		Find(&classes).Error
	if err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepository) AddMember(ctx context.Context, member *entity.ClassMember) error {
	if err := database.Conn(ctx, r.db).Create(member).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperror.ErrConflict
		}
		return err
	}
	return nil
}

func (r *classRepository) IsMember(ctx context.Context, userID, classID uint) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entity.ClassMember{}).
		Where("user_id = ? AND class_id = ?", userID, classID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ranking orders members by points, then level, then name.
func (r *classRepository) Ranking(ctx context.Context, classID uint) ([]MemberRank, error) {
	var rows []MemberRank
	err := database.Conn(ctx, r.db).
		Table("users").
		Select("users.id AS user_id, users.name, users.points, users.level").
		Joins("JOIN class_members ON class_members.user_id = users.id").
		Where("class_members.class_id = ?", classID).
		Order("users.points DESC").
		Order("users.level DESC").
		Order("users.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *classRepository) ShareNote(ctx context.Context, noteID, classID uint, sharedAt time.Time) error {
	res := database.Conn(ctx, r.db).Model(&entity.Note{}).
		Where("id = ?", noteID).
		UpdateColumns(map[string]any{
			"class_id":  classID,
			"shared_at": sharedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *classRepository) SharedNotes(ctx context.Context, classID uint) ([]SharedNote, error) {
	var rows []SharedNote
	err := database.Conn(ctx, r.db).
		Table("notes").
		Select("notes.id AS note_id, notes.title, notes.user_id AS author_id, users.name AS author_name, notes.shared_at").
		Joins("JOIN users ON users.id = notes.user_id").
		Where("notes.class_id = ?", classID).
		Order("notes.shared_at DESC").
		Order("notes.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
