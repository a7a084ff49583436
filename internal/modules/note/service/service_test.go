package service_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"anoa.com/studyhub/internal/ai"
	"anoa.com/studyhub/internal/entity"
	gamificationRepo "anoa.com/studyhub/internal/modules/gamification/repository"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	"anoa.com/studyhub/internal/modules/note/dto"
	"anoa.com/studyhub/internal/modules/note/repository"
	"anoa.com/studyhub/internal/modules/note/service"
	"anoa.com/studyhub/internal/testutil"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	commonDto "anoa.com/studyhub/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

type fakeGenerator struct {
	note *ai.GeneratedNote
	err  error
}

func (g *fakeGenerator) GenerateNote(context.Context, string, string) (*ai.GeneratedNote, error) {
	return g.note, g.err
}

func (g *fakeGenerator) GenerateExercise(context.Context, ai.ExerciseRequest) (*ai.GeneratedExercise, error) {
	return nil, errors.New("not used")
}

type fakeSearch struct {
	mu      sync.Mutex
	indexed []uint
	deleted []uint
}

func (s *fakeSearch) IndexNote(note *entity.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed = append(s.indexed, note.ID)
	return nil
}

func (s *fakeSearch) DeleteNote(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeSearch) GenerateSearchToken(userID uint) (string, error) {
	return "token-for-user", nil
}

type fixture struct {
	db     *gorm.DB
	search *fakeSearch
	gen    *fakeGenerator
	svc    service.NoteService
	clock  *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	repo := gamificationRepo.NewGamificationRepository(db)
	tx := database.NewTransactor(db)
	clockFn := testutil.FixedClock(now)
	coins := gamificationService.NewCoinService(repo)
	access := gamificationService.NewAccessService(repo, tx, coins, gamificationService.NewSubscriptionService(repo, tx, clockFn))

	current := now
	f := &fixture{
		db:     db,
		search: &fakeSearch{},
		gen:    &fakeGenerator{},
		clock:  &current,
	}
	f.svc = service.NewNoteService(
		repository.NewNoteRepository(db),
		access,
		f.gen,
		f.search,
		nil,
		time.Minute,
		func() time.Time { return *f.clock },
	)
	return f
}

func (f *fixture) coins(t *testing.T, userID uint) int {
	t.Helper()
	var usr entity.User
	require.NoError(t, f.db.First(&usr, userID).Error)
	return usr.Coins
}

func TestCreateAndUpdateNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)

	note, err := f.svc.CreateNote(ctx, usr.ID, dto.CreateNoteRequest{
		Title:   " Cells ",
		Subject: "biology",
		Content: `<p onclick="x()">Cells are <b>small</b></p><script>alert(1)</script>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cells", note.Title)
	assert.Equal(t, "<p>Cells are <b>small</b></p>", note.Content)
	assert.True(t, note.CreatedAt.Equal(now))
	assert.True(t, note.UpdatedAt.Equal(now))
	assert.Equal(t, []uint{note.ID}, f.search.indexed)

	*f.clock = now.Add(time.Hour)
	content := "<p>Cells divide</p>"
	updated, err := f.svc.UpdateNote(ctx, usr.ID, note.ID, dto.UpdateNoteRequest{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "<p>Cells divide</p>", updated.Content)
	assert.Equal(t, "Cells", updated.Title)

	stored, err := f.svc.GetNote(ctx, usr.ID, note.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.Equal(now.Add(time.Hour)))
	assert.True(t, stored.CreatedAt.Equal(now))
}

func TestCreateNote_EmptyAfterSanitize(t *testing.T) {
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)

	_, err := f.svc.CreateNote(context.Background(), usr.ID, dto.CreateNoteRequest{
		Title:   "x",
		Content: "<script>alert(1)</script>",
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestNotesAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner@example.com", 0, 0)
	other := testutil.CreateUser(t, f.db, "other@example.com", 0, 0)

	note, err := f.svc.CreateNote(ctx, owner.ID, dto.CreateNoteRequest{Title: "mine", Content: "secret"})
	require.NoError(t, err)

	_, err = f.svc.GetNote(ctx, other.ID, note.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	title := "stolen"
	_, err = f.svc.UpdateNote(ctx, other.ID, note.ID, dto.UpdateNoteRequest{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.ErrorIs(t, f.svc.DeleteNote(ctx, other.ID, note.ID), apperror.ErrNotFound)

	require.NoError(t, f.svc.DeleteNote(ctx, owner.ID, note.ID))
	assert.Equal(t, []uint{note.ID}, f.search.deleted)
	assert.ErrorIs(t, f.svc.AdminDeleteNote(ctx, note.ID), apperror.ErrNotFound)
}

func TestListNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)
	other := testutil.CreateUser(t, f.db, "other@example.com", 0, 0)

	for i, subject := range []string{"math", "math", "biology"} {
		*f.clock = now.Add(time.Duration(i) * time.Minute)
		_, err := f.svc.CreateNote(ctx, usr.ID, dto.CreateNoteRequest{Title: subject, Subject: subject, Content: "c"})
		require.NoError(t, err)
	}
	_, err := f.svc.CreateNote(ctx, other.ID, dto.CreateNoteRequest{Title: "x", Content: "c"})
	require.NoError(t, err)

	all, err := f.svc.ListNotes(ctx, usr.ID, dto.NoteListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Meta.TotalItems)
	require.Len(t, all.Data, 3)
	assert.Equal(t, "biology", all.Data[0].Subject)

	mathNotes, err := f.svc.ListNotes(ctx, usr.ID, dto.NoteListQuery{
		PageQuery: commonDto.PageQuery{Page: 1, Limit: 1},
		Subject:   "math",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mathNotes.Meta.TotalItems)
	assert.Equal(t, 2, mathNotes.Meta.TotalPages)
	assert.Len(t, mathNotes.Data, 1)
}

func TestGenerateNote_ChargesCoins(t *testing.T) {
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 25)
	f.gen.note = &ai.GeneratedNote{Title: "Osmosis", Content: "<p>Water</p><script>x</script>"}

	res, err := f.svc.GenerateNote(context.Background(), usr.ID, dto.GenerateNoteRequest{Topic: "osmosis", Subject: "biology"})
	require.NoError(t, err)

	assert.Equal(t, 10, res.CoinsUsed)
	assert.True(t, res.Note.AIGenerated)
	assert.Equal(t, "<p>Water</p>", res.Note.Content)
	assert.Equal(t, 15, f.coins(t, usr.ID))
}

func TestGenerateNote_SubscriberIsFree(t *testing.T) {
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 0)
	testutil.Subscribe(t, f.db, usr.ID, testutil.TimePtr(now.Add(24*time.Hour)))
	f.gen.note = &ai.GeneratedNote{Title: "Osmosis", Content: "<p>Water</p>"}

	res, err := f.svc.GenerateNote(context.Background(), usr.ID, dto.GenerateNoteRequest{Topic: "osmosis"})
	require.NoError(t, err)
	assert.Zero(t, res.CoinsUsed)
	assert.Zero(t, f.coins(t, usr.ID))
}

func TestGenerateNote_InsufficientCoins(t *testing.T) {
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 9)
	f.gen.note = &ai.GeneratedNote{Title: "Osmosis", Content: "<p>Water</p>"}

	_, err := f.svc.GenerateNote(context.Background(), usr.ID, dto.GenerateNoteRequest{Topic: "osmosis"})
	assert.ErrorIs(t, err, apperror.ErrInsufficientCoins)
	assert.Equal(t, http.StatusPaymentRequired, apperror.MapErrorToStatus(err))
	assert.Equal(t, 9, f.coins(t, usr.ID))
}

func TestGenerateNote_RefundsOnFailure(t *testing.T) {
	f := newFixture(t)
	usr := testutil.CreateUser(t, f.db, "student@example.com", 0, 30)
	f.gen.err = errors.New("model overloaded")

	_, err := f.svc.GenerateNote(context.Background(), usr.ID, dto.GenerateNoteRequest{Topic: "osmosis"})
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
	assert.Equal(t, 30, f.coins(t, usr.ID))

	var count int64
	require.NoError(t, f.db.Model(&entity.Note{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateNote_Disabled(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewNoteService(repository.NewNoteRepository(db), nil, nil, nil, nil, 0, nil)

	_, err := svc.GenerateNote(context.Background(), 1, dto.GenerateNoteRequest{Topic: "x"})
	assert.ErrorIs(t, err, apperror.ErrUnavailable)

	_, err = svc.SearchToken(context.Background(), 1)
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}

func TestSearchToken(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.SearchToken(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "token-for-user", res.Token)
	assert.Equal(t, "notes", res.Index)
}
