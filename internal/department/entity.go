// AngelaMos | 2026
// entity.go

package department

import (
	"time"
)

type Department struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Service     string    `db:"service"`
	Email       string    `db:"email"`
	PhoneNumber string    `db:"phone_number"`
	Image       *string   `db:"image"`
	CreatedBy   *string   `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// MutableBy reports whether userID may mutate the department. A department
// whose creator is gone has no owner and is open to any signed-in user.
func (d *Department) MutableBy(userID string) bool {
	if d.CreatedBy == nil {
		return userID != ""
	}
	return *d.CreatedBy == userID
}

// IsOwner is stricter than MutableBy: it is true only for the recorded
// creator.
func (d *Department) IsOwner(userID string) bool {
	return d.CreatedBy != nil && *d.CreatedBy == userID
}
