package request

type CreateUserRequest struct {
	Name      string `json:"name"`
	AvatarUrl string `json:"avatar_url"`
}

type AddMemberRequest struct {
	UserId string `json:"user_id"`
}

type CreateTeamRequest struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type CreateIssueRequest struct {
	TeamId      string  `json:"team_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    *int    `json:"priority"`
	AssigneeId  *string `json:"assignee_id"`
}

// UpdateIssueRequest частичное обновление: отсутствующие поля не трогаются,
// пустой assignee_id снимает исполнителя
type UpdateIssueRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *int    `json:"priority"`
	AssigneeId  *string `json:"assignee_id"`
}

type CreateCommentRequest struct {
	Body string `json:"body"`
}

type UpdateCommentRequest struct {
	Body string `json:"body"`
}
