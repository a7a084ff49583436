package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"anoa.com/studyhub/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const (
	NotesIndex     = "notes"
	signingKeyName = "TenantTokenSigner"
	tokenTTL       = 24 * time.Hour
)

// SearchService keeps the notes index in sync and signs per-student search tokens.
type SearchService interface {
	IndexNote(note *entity.Note) error
	DeleteNote(id uint) error
	GenerateSearchToken(userID uint) (string, error)
}

type searchService struct {
	client        meilisearch.ServiceManager
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
	clock         func() time.Time
}

func NewSearchService(client meilisearch.ServiceManager, clock func() time.Time) SearchService {
	if clock == nil {
		clock = time.Now
	}
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		clock:     clock,
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *searchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{
		Limit: 20,
	})
	if err != nil {
		zap.L().Warn("failed to list meilisearch keys", zap.Error(err))
		return
	}

	for _, key := range resp.Results {
		if key.Name == signingKeyName {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			zap.L().Info("found existing meilisearch signing key")
			return
		}
	}

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        signingKeyName,
		Actions:     []string{"search"},
		Indexes:     []string{NotesIndex},
		ExpiresAt:   s.clock().AddDate(100, 0, 0),
	})
	if err != nil {
		zap.L().Warn("failed to create meilisearch signing key", zap.Error(err))
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	zap.L().Info("created meilisearch signing key")
}

func (s *searchService) initIndexes() {
	filterable := []any{"user_id", "subject", "ai_generated"}
	if _, err := s.client.Index(NotesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		zap.L().Warn("failed to update notes filterable attributes", zap.Error(err))
	}

	sortable := []string{"created_at", "updated_at"}
	if _, err := s.client.Index(NotesIndex).UpdateSortableAttributes(&sortable); err != nil {
		zap.L().Warn("failed to update notes sortable attributes", zap.Error(err))
	}
}

type noteDoc struct {
	ID          string `json:"id"`
	UserID      uint   `json:"user_id"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	AIGenerated bool   `json:"ai_generated"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

func newNoteDoc(note *entity.Note, content string) noteDoc {
	return noteDoc{
		ID:          fmt.Sprint(note.ID),
		UserID:      note.UserID,
		Title:       note.Title,
		Subject:     note.Subject,
		Content:     content,
		AIGenerated: note.AIGenerated,
		CreatedAt:   note.CreatedAt.Unix(),
		UpdatedAt:   note.UpdatedAt.Unix(),
	}
}

// cleanContent flattens note HTML into plain searchable text.
func cleanContent(sanitizer *bluemonday.Policy, content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")
	content = strings.ReplaceAll(content, "</li>", " ")

	cleanText := html.UnescapeString(sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *searchService) IndexNote(note *entity.Note) error {
	doc := newNoteDoc(note, cleanContent(s.sanitizer, note.Content))
	task, err := s.client.Index(NotesIndex).AddDocuments([]noteDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	zap.L().Debug("indexed note", zap.Uint("note_id", note.ID), zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (s *searchService) DeleteNote(id uint) error {
	_, err := s.client.Index(NotesIndex).DeleteDocument(fmt.Sprint(id))
	return err
}

// searchRules restricts a tenant token to the student's own notes.
func searchRules(userID uint) map[string]any {
	return map[string]any{
		NotesIndex: map[string]any{
			"filter": fmt.Sprintf("user_id = %d", userID),
		},
	}
}

func (s *searchService) GenerateSearchToken(userID uint) (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	return s.client.GenerateTenantToken(s.signingKeyUID, searchRules(userID), &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: s.clock().Add(tokenTTL),
	})
}

func strPtr(s string) *string {
	return &s
}
