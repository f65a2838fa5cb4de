package service

import "fmt"

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func WrapError(domainError *DomainError, err error) error {
	return &DomainError{
		Code:    domainError.Code,
		Message: domainError.Message,
		Err:     err,
	}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

var (
	// NOT_FOUND
	ErrTeamNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "team not found",
	}
	ErrIssueNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "issue not found",
	}
	ErrCommentNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "comment not found",
	}
	ErrUserNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "user not found",
	}

	// TEAM_EXISTS
	ErrTeamExists = &DomainError{
		Code:    "TEAM_EXISTS",
		Message: "team key already exists",
	}

	// INVALID_INPUT
	ErrInvalidInput = &DomainError{
		Code:    "INVALID_INPUT",
		Message: "invalid input",
	}

	// VALIDATION_FAILED
	ErrValidationFailed = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "entity validation failed",
	}

	// ALLOCATOR_UNAVAILABLE: ретраи взятия блокировки счетчика исчерпаны
	ErrAllocatorUnavailable = &DomainError{
		Code:    "ALLOCATOR_UNAVAILABLE",
		Message: "identifier allocation unavailable",
	}
)
