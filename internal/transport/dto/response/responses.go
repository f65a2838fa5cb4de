package response

import "trackline/internal/domain"

type UserResponse struct {
	User *domain.User `json:"user"`
}

type TeamResponse struct {
	Team *domain.Team `json:"team"`
}

type IssueResponse struct {
	Issue *domain.Issue `json:"issue"`
}

type CommentResponse struct {
	Comment *domain.Comment `json:"comment"`
}

type DeletedResponse struct {
	Id string `json:"id"`
}
