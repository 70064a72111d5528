package errs

import (
	"errors"
	"fmt"
)

var (
	ErrObjectNotFound       = errors.New("object not found")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrAlreadyFinalized     = errors.New("route is already finalized")
	ErrTokenNotFound        = errors.New("token not found")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenAlreadyConsumed = errors.New("token already consumed")
	ErrActorNotPermitted    = errors.New("actor is not permitted")
)

// ObjectNotFoundError reports a missing entity. ID is formatted with %s.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)", ErrObjectNotFound, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// InvalidTransitionError reports a state change that the entity's lifecycle forbids.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
	Cause  error
}

func NewInvalidTransitionError(entity, id, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, ID: id, From: from, To: to}
}

func NewInvalidTransitionErrorWithCause(entity, id, from, to string, cause error) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, ID: id, From: from, To: to, Cause: cause}
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s %s cannot move from %s to %s", ErrInvalidTransition, e.Entity, e.ID, e.From, e.To)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

type AlreadyFinalizedError struct {
	RouteID string
}

func NewAlreadyFinalizedError(routeID string) *AlreadyFinalizedError {
	return &AlreadyFinalizedError{RouteID: routeID}
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAlreadyFinalized, e.RouteID)
}

func (e *AlreadyFinalizedError) Unwrap() error {
	return ErrAlreadyFinalized
}

// TokenError is shared by the three token failures; Kind holds the sentinel.
type TokenError struct {
	Kind  error
	Token string
}

func NewTokenNotFoundError(token string) *TokenError {
	return &TokenError{Kind: ErrTokenNotFound, Token: token}
}

func NewTokenExpiredError(token string) *TokenError {
	return &TokenError{Kind: ErrTokenExpired, Token: token}
}

func NewTokenAlreadyConsumedError(token string) *TokenError {
	return &TokenError{Kind: ErrTokenAlreadyConsumed, Token: token}
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Token)
}

func (e *TokenError) Unwrap() error {
	return e.Kind
}

type ActorNotPermittedError struct {
	Action  string
	ActorID string
}

func NewActorNotPermittedError(action, actorID string) *ActorNotPermittedError {
	return &ActorNotPermittedError{Action: action, ActorID: actorID}
}

func (e *ActorNotPermittedError) Error() string {
	return fmt.Sprintf("%s: %s may not %s", ErrActorNotPermitted, e.ActorID, e.Action)
}

func (e *ActorNotPermittedError) Unwrap() error {
	return ErrActorNotPermitted
}
