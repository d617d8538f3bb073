package models

import (
	"time"

	"github.com/google/uuid"
)

// Lecture fields that can change after creation, as reported in
// lecture_updated notifications.
const (
	LectureFieldAudio      = "audioUrl"
	LectureFieldTranscript = "transcript"
	LectureFieldNotes      = "notes"
	LectureFieldSummary    = "ai_summary"
)

// Lecture is a single lecture with its optional audio and annotations.
// JSON names follow the web client's existing contract.
type Lecture struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	UnitID     uuid.UUID `json:"unit_id"`
	AudioURL   *string   `json:"audioUrl"`
	Transcript *string   `json:"transcript"`
	Notes      *string   `json:"notes"`
	AISummary  *string   `json:"ai_summary"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasAudio reports whether an audio reference is set.
func (l *Lecture) HasAudio() bool {
	return l.AudioURL != nil && *l.AudioURL != ""
}

// NullableText maps empty text to nil so clearing and omitting store NULL.
func NullableText(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
