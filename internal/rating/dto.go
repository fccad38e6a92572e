// AngelaMos | 2026
// dto.go

package rating

type SubmitRequest struct {
	UserRating *float64 `json:"user_rating"`
}

type RatingResponse struct {
	DepartmentID  string  `json:"department_id"`
	UserRating    any     `json:"user_rating"`
	AverageRating float64 `json:"average_rating"`
}

type SubmitResponse struct {
	Message string `json:"message"`
	RatingResponse
	Created bool `json:"created"`
}

func ToSubmitResponse(s *Submission) SubmitResponse {
	return SubmitResponse{
		Message: "Rating submitted successfully",
		RatingResponse: RatingResponse{
			DepartmentID:  s.Rating.DepartmentID,
			UserRating:    s.Rating.UserRating,
			AverageRating: s.Average,
		},
		Created: s.Created,
	}
}

func ToRatingResponse(v *View) RatingResponse {
	return RatingResponse{
		DepartmentID:  v.DepartmentID,
		UserRating:    v.UserRating,
		AverageRating: v.Average,
	}
}
