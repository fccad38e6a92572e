// AngelaMos | 2026
// dto.go

package review

import (
	"time"
)

const timestampLayout = "02 Jan 2006 15:04:05"

type ReviewRequest struct {
	Body string `json:"body"`
}

type ReviewResponse struct {
	ID           string           `json:"id"`
	DepartmentID string           `json:"department_id"`
	AuthorID     string           `json:"author_id"`
	Body         string           `json:"body"`
	Author       string           `json:"author"`
	Department   string           `json:"department"`
	ReplyCount   int              `json:"reply_count"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
	Children     []ReviewResponse `json:"children"`
}

type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func toResponse(r *Review) ReviewResponse {
	return ReviewResponse{
		ID:           r.ID,
		DepartmentID: r.DepartmentID,
		AuthorID:     r.AuthorID,
		Body:         r.Body,
		Author:       r.AuthorEmail,
		Department:   r.DepartmentName,
		ReplyCount:   r.ReplyCount,
		CreatedAt:    formatTimestamp(r.CreatedAt),
		UpdatedAt:    formatTimestamp(r.UpdatedAt),
		Children:     []ReviewResponse{},
	}
}

func ToThreadResponse(t *Thread) ReviewResponse {
	resp := toResponse(&t.Review)
	for i := range t.Children {
		resp.Children = append(resp.Children, toResponse(&t.Children[i]))
	}
	resp.ReplyCount = len(t.Children)
	return resp
}

func ToThreadResponseList(threads []Thread) ReviewListResponse {
	out := ReviewListResponse{Reviews: make([]ReviewResponse, 0, len(threads))}
	for i := range threads {
		out.Reviews = append(out.Reviews, ToThreadResponse(&threads[i]))
	}
	return out
}
