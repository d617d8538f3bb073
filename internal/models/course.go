package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is the top of the course → unit → lecture tree.
type Course struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
