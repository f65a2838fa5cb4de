package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownScope = errors.New("unknown scope")

type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeTeam
	ScopeResource
)

// Scope адресует группу подключений: весь workspace, команда или один ресурс.
// Сравнивается по значению, поэтому годится как ключ map.
type Scope struct {
	Kind ScopeKind
	Id   string
}

func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

func TeamScope(teamId string) Scope {
	return Scope{Kind: ScopeTeam, Id: teamId}
}

func ResourceScope(resourceId string) Scope {
	return Scope{Kind: ScopeResource, Id: resourceId}
}

// String возвращает имя канала для wire-протокола и логов
func (s Scope) String() string {
	switch s.Kind {
	case ScopeGlobal:
		return "workspace"
	case ScopeTeam:
		return "team_" + s.Id
	case ScopeResource:
		return "issue_" + s.Id
	}
	return "unknown"
}

// ParseScope разбирает имя канала из запроса на подписку
func ParseScope(raw string) (Scope, error) {
	switch {
	case raw == "workspace":
		return GlobalScope(), nil
	case strings.HasPrefix(raw, "team_"):
		id := strings.TrimPrefix(raw, "team_")
		if id == "" {
			return Scope{}, fmt.Errorf("%w: %q", ErrUnknownScope, raw)
		}
		return TeamScope(id), nil
	case strings.HasPrefix(raw, "issue_"):
		id := strings.TrimPrefix(raw, "issue_")
		if id == "" {
			return Scope{}, fmt.Errorf("%w: %q", ErrUnknownScope, raw)
		}
		return ResourceScope(id), nil
	}
	return Scope{}, fmt.Errorf("%w: %q", ErrUnknownScope, raw)
}
