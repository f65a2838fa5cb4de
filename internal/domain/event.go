package domain

import (
	"encoding/json"
	"time"
)

const (
	EventIssueCreated    = "issue.created"
	EventIssueUpdated    = "issue.updated"
	EventIssueDeleted    = "issue.deleted"
	EventCommentCreated  = "comment.created"
	EventCommentUpdated  = "comment.updated"
	EventCommentDeleted  = "comment.deleted"
	EventTeamCreated     = "team.created"
	EventTeamUpdated     = "team.updated"
	EventTeamDeleted     = "team.deleted"
	EventPresenceUpdated = "presence.updated"

	EventSubscriptionConfirmed = "subscription.confirmed"
	EventSubscriptionRejected  = "subscription.rejected"
)

// Event неизменяемое доменное событие; одно событие может уходить
// в несколько scope с одинаковым payload.
type Event struct {
	Type      string
	Fields    map[string]any
	Timestamp time.Time
}

func NewEvent(eventType string, fields map[string]any) Event {
	return Event{
		Type:      eventType,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// Envelope сериализует событие в wire-формат:
// {"type": ..., <поля события>, "timestamp": ISO-8601}
func (e Event) Envelope() ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		m[k] = v
	}
	m["type"] = e.Type
	m["timestamp"] = e.Timestamp.Format(time.RFC3339)
	return json.Marshal(m)
}

func NewIssueCreated(issue *Issue, actorId string) Event {
	return NewEvent(EventIssueCreated, map[string]any{
		"issue":    issue,
		"actor_id": actorId,
	})
}

func NewIssueUpdated(issue *Issue, changedFields []string, actorId string) Event {
	return NewEvent(EventIssueUpdated, map[string]any{
		"issue":          issue,
		"changed_fields": changedFields,
		"actor_id":       actorId,
	})
}

func NewIssueDeleted(issueId, identifier, actorId string) Event {
	return NewEvent(EventIssueDeleted, map[string]any{
		"issue_id":   issueId,
		"identifier": identifier,
		"actor_id":   actorId,
	})
}

func NewCommentCreated(comment *Comment) Event {
	return NewEvent(EventCommentCreated, map[string]any{"comment": comment})
}

func NewCommentUpdated(comment *Comment) Event {
	return NewEvent(EventCommentUpdated, map[string]any{"comment": comment})
}

func NewCommentDeleted(commentId string) Event {
	return NewEvent(EventCommentDeleted, map[string]any{"comment_id": commentId})
}

func NewTeamCreated(team *Team) Event {
	return NewEvent(EventTeamCreated, map[string]any{"team": team})
}

func NewTeamDeleted(teamId string) Event {
	return NewEvent(EventTeamDeleted, map[string]any{"team_id": teamId})
}

func NewPresenceUpdated(roster []PresenceEntry) Event {
	users := make([]map[string]any, 0, len(roster))
	for _, entry := range roster {
		users = append(users, map[string]any{
			"id":         entry.User.Id,
			"name":       entry.User.Name,
			"avatar_url": entry.User.AvatarUrl,
			"joined_at":  entry.JoinedAt.Format(time.RFC3339),
		})
	}
	return NewEvent(EventPresenceUpdated, map[string]any{"users": users})
}

func NewSubscriptionConfirmed(scope Scope) Event {
	return NewEvent(EventSubscriptionConfirmed, map[string]any{
		"scope":  scope.String(),
		"status": "confirmed",
	})
}

func NewSubscriptionRejected(scope Scope, reason string) Event {
	return NewEvent(EventSubscriptionRejected, map[string]any{
		"scope":  scope.String(),
		"status": "rejected",
		"reason": reason,
	})
}

// Таблица маршрутизации: тип мутации -> набор scope, в которые она уходит.
// Повторяет BroadcastService: командные события видят и список команды,
// и общий workspace, обновление issue дополнительно уходит в detail-канал.
func ScopesForIssueCreated(teamId string) []Scope {
	return []Scope{GlobalScope(), TeamScope(teamId)}
}

func ScopesForIssueUpdated(teamId, issueId string) []Scope {
	return []Scope{GlobalScope(), TeamScope(teamId), ResourceScope(issueId)}
}

func ScopesForIssueDeleted(teamId string) []Scope {
	return []Scope{GlobalScope(), TeamScope(teamId)}
}

func ScopesForComment(issueId string) []Scope {
	return []Scope{ResourceScope(issueId)}
}

func ScopesForTeam() []Scope {
	return []Scope{GlobalScope()}
}
