package models

import (
	"time"

	"github.com/google/uuid"
)

// Unit groups lectures inside a course.
type Unit struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CourseID    uuid.UUID `json:"course_id"`
	CreatedAt   time.Time `json:"created_at"`
}
