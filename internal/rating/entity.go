// AngelaMos | 2026
// entity.go

package rating

import (
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Rating struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	DepartmentID string    `db:"department_id"`
	UserRating   float64   `db:"user_rating"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Submission is the outcome of a rating submit: the stored row, whether it
// was new, and the department average including it.
type Submission struct {
	Rating  Rating
	Created bool
	Average float64
}

// View is what a requester sees for a department. UserRating holds either
// the requester's numeric rating or a sentinel message.
type View struct {
	DepartmentID string
	Average      float64
	UserRating   any
}

const (
	SentinelAnonymous = "login to rate the department"
	SentinelNotRated  = "you have not rated this department"
)
