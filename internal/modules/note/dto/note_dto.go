package dto

import (
	"anoa.com/studyhub/internal/entity"
	commonDto "anoa.com/studyhub/pkg/dto"
)

type CreateNoteRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Subject string `json:"subject" binding:"omitempty,max=100"`
	Content string `json:"content" binding:"required"`
}

type GenerateNoteRequest struct {
	Topic   string `json:"topic" binding:"required,max=200"`
	Subject string `json:"subject" binding:"omitempty,max=100"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=200"`
	Subject *string `json:"subject" binding:"omitempty,max=100"`
	Content *string `json:"content" binding:"omitempty,min=1"`
}

type NoteListQuery struct {
	commonDto.PageQuery
	Subject string `form:"subject" binding:"omitempty,max=100"`
}

type PaginatedNotesResponse struct {
	Data []entity.Note            `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

// GeneratedNoteResponse reports what an AI note cost the student.
type GeneratedNoteResponse struct {
	Note      *entity.Note `json:"note"`
	CoinsUsed int          `json:"coins_used"`
}

type SearchTokenResponse struct {
	Token string `json:"token"`
	Index string `json:"index"`
}
