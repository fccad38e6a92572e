// AngelaMos | 2026
// entity.go

package review

import (
	"time"
)

const maxBodyLength = 250

type Review struct {
	ID           string    `db:"id"`
	Body         string    `db:"body"`
	DepartmentID string    `db:"department_id"`
	AuthorID     string    `db:"author_id"`
	ParentID     *string   `db:"parent_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	AuthorEmail    string `db:"author_email"`
	DepartmentName string `db:"department_name"`
	ReplyCount     int    `db:"reply_count"`
}

// IsReply reports whether the review sits at the second level of a thread.
// Replies cannot be replied to.
func (r *Review) IsReply() bool {
	return r.ParentID != nil
}

// Thread is a review together with its direct replies.
type Thread struct {
	Review
	Children []Review
}
