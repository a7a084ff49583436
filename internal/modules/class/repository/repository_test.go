package repository_test

import (
	"context"
	"testing"
	"time"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/internal/modules/class/repository"
	"anoa.com/studyhub/internal/testutil"
	"anoa.com/studyhub/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueConstraints(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewClassRepository(db)
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	usr := testutil.CreateUser(t, db, "teacher@example.com", 0, 0)

	class := &entity.Class{Name: "Art", Code: "ART123", OwnerID: usr.ID, CreatedAt: now}
	require.NoError(t, repo.Create(ctx, class))

	err := repo.Create(ctx, &entity.Class{Name: "Art again", Code: "ART123", OwnerID: usr.ID, CreatedAt: now})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	require.NoError(t, repo.AddMember(ctx, &entity.ClassMember{UserID: usr.ID, ClassID: class.ID, CreatedAt: now}))
	err = repo.AddMember(ctx, &entity.ClassMember{UserID: usr.ID, ClassID: class.ID, CreatedAt: now})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	member, err := repo.IsMember(ctx, usr.ID, class.ID)
	require.NoError(t, err)
	assert.True(t, member)

	found, err := repo.FindByCode(ctx, "ART123")
	require.NoError(t, err)
	assert.Equal(t, class.ID, found.ID)

	_, err = repo.FindByCode(ctx, "NONE00")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestShareNote_MissingNote(t *testing.T) {
	db := testutil.NewDB(t)
	err := repository.NewClassRepository(db).ShareNote(context.Background(), 42, 1, time.Now())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
