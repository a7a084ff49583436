package dto

import "time"

type CreateClassRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type JoinClassRequest struct {
	Code string `json:"code" binding:"required,max=20"`
}

type ShareNoteRequest struct {
	NoteID  uint `json:"note_id" binding:"required"`
	ClassID uint `json:"class_id" binding:"required"`
}

type ClassResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	OwnerID   uint      `json:"owner_id"`
	IsCreator bool      `json:"is_creator"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberRankResponse struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
}

type SharedNoteResponse struct {
	NoteID     uint      `json:"note_id"`
	Title      string    `json:"title"`
	AuthorID   uint      `json:"author_id"`
	AuthorName string    `json:"author_name"`
	SharedAt   time.Time `json:"shared_at"`
}

// ClassDetailResponse is what a member sees when opening a class.
type ClassDetailResponse struct {
	Class   ClassResponse        `json:"class"`
	Ranking []MemberRankResponse `json:"ranking"`
	Notes   []SharedNoteResponse `json:"notes"`
}
