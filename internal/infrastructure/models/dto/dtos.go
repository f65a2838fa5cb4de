package dto

type CreateTeamDTO struct {
	Name string
	Key  string
}

type CreateIssueDTO struct {
	TeamId      string
	CreatorId   string
	AssigneeId  *string
	Identifier  string
	Number      int
	Title       string
	Description string
	Status      string
	Priority    int
}

// UpdateIssueDTO частичное обновление: nil-поля не трогаем
type UpdateIssueDTO struct {
	IssueId       string
	Title         *string
	Description   *string
	Status        *string
	Priority      *int
	AssigneeId    *string
	ClearAssignee bool
}

type CreateCommentDTO struct {
	IssueId string
	UserId  string
	Body    string
}

type UpdateCommentDTO struct {
	CommentId string
	Body      string
}
