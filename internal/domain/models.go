package domain

import "time"

const (
	StatusBacklog    = "backlog"
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusDone       = "done"
	StatusCanceled   = "canceled"
)

// Priority levels: 0=none, 1=urgent, 2=high, 3=medium, 4=low
const (
	PriorityNone   = 0
	PriorityLowest = 4
)

type User struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarUrl string    `json:"avatar_url"`
	CreatedAt time.Time `json:"-"`
}

type Team struct {
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	Key          string    `json:"key"`
	IssueCounter int       `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type TeamMember struct {
	TeamId   string    `json:"team_id"`
	UserId   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type Issue struct {
	Id          string    `json:"id"`
	TeamId      string    `json:"team_id"`
	CreatorId   string    `json:"creator_id"`
	AssigneeId  *string   `json:"assignee_id"`
	Identifier  string    `json:"identifier"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Comment struct {
	Id        string    `json:"id"`
	IssueId   string    `json:"issue_id"`
	UserId    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSnapshot это данные пользователя, замороженные на момент подписки
type UserSnapshot struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	AvatarUrl string `json:"avatar_url"`
}

type PresenceEntry struct {
	ResourceId string       `json:"-"`
	User       UserSnapshot `json:"-"`
	JoinedAt   time.Time    `json:"joined_at"`
	ExpiresAt  time.Time    `json:"-"`
}

type ChannelSubscription struct {
	ConnectionId  string
	Scope         Scope
	UserId        string
	EstablishedAt time.Time
}

func (i Issue) EntityId() string   { return i.Id }
func (c Comment) EntityId() string { return c.Id }

func ValidStatus(s string) bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusCanceled:
		return true
	}
	return false
}

func ValidPriority(p int) bool {
	return p >= PriorityNone && p <= PriorityLowest
}
