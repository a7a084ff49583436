package repository_test

import (
	"context"
	"testing"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/internal/modules/mission/repository"
	"anoa.com/studyhub/internal/testutil"
	"anoa.com/studyhub/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCompletion_Duplicate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	usr := testutil.CreateUser(t, db, "student@example.com", 0, 0)
	repo := repository.NewMissionRepository(db)

	first := &entity.MissionCompletion{UserID: usr.ID, MissionID: "quiz_1", CompletedOn: "2025-03-09"}
	require.NoError(t, repo.CreateCompletion(ctx, first))

	dup := &entity.MissionCompletion{UserID: usr.ID, MissionID: "quiz_1", CompletedOn: "2025-03-09"}
	assert.ErrorIs(t, repo.CreateCompletion(ctx, dup), apperror.ErrAlreadyCompleted)

	// a new day or another mission is a separate completion
	require.NoError(t, repo.CreateCompletion(ctx, &entity.MissionCompletion{UserID: usr.ID, MissionID: "quiz_1", CompletedOn: "2025-03-10"}))
	require.NoError(t, repo.CreateCompletion(ctx, &entity.MissionCompletion{UserID: usr.ID, MissionID: "quiz_3", CompletedOn: "2025-03-09"}))

	var count int64
	require.NoError(t, db.Model(&entity.MissionCompletion{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	found, err := repo.FindCompletion(ctx, usr.ID, "quiz_1", "2025-03-09")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}
