package errs

import (
	"errors"
	"fmt"
)

// Code is the stable machine-readable name of a failure, shared by both front doors.
type Code string

const (
	CodeNotFound             Code = "not_found"
	CodeValidation           Code = "validation_error"
	CodeInvalidTransition    Code = "invalid_transition"
	CodeAlreadyFinalized     Code = "already_finalized"
	CodeTokenNotFound        Code = "token_not_found"
	CodeTokenExpired         Code = "token_expired"
	CodeTokenAlreadyConsumed Code = "token_already_consumed"
	CodeNotPermitted         Code = "not_permitted"
	CodeTransientStore       Code = "transient_store_error"
	CodeInternal             Code = "internal_error"
)

// Detail identifies which entity and which rule a failure is about.
type Detail struct {
	Code    Code
	Message string
	Entity  string
	ID      string
	Rule    string
}

// Describe classifies err. Anything outside the taxonomy is CodeInternal with a generic
// message, so driver or store details never reach a caller.
func Describe(err error) Detail {
	var (
		notFound   *ObjectNotFoundError
		transition *InvalidTransitionError
		finalized  *AlreadyFinalizedError
		token      *TokenError
		forbidden  *ActorNotPermittedError
	)

	d := Detail{Message: fmt.Sprint(err)}
	switch {
	case errors.As(err, &transition):
		d.Code, d.Entity, d.ID = CodeInvalidTransition, transition.Entity, transition.ID
		d.Rule = transition.From + " -> " + transition.To
	case errors.As(err, &finalized):
		d.Code, d.Entity, d.ID, d.Rule = CodeAlreadyFinalized, "route", finalized.RouteID, "finalized routes are frozen"
	case errors.As(err, &token):
		d.Entity, d.Message = "action_token", token.Kind.Error()
		switch {
		case errors.Is(token.Kind, ErrTokenExpired):
			d.Code, d.Rule = CodeTokenExpired, "expires_at"
		case errors.Is(token.Kind, ErrTokenAlreadyConsumed):
			d.Code, d.Rule = CodeTokenAlreadyConsumed, "single use"
		default:
			d.Code, d.Rule = CodeTokenNotFound, "exists"
		}
	case errors.As(err, &forbidden):
		d.Code, d.Entity, d.ID, d.Rule = CodeNotPermitted, "actor", forbidden.ActorID, forbidden.Action
	case errors.As(err, &notFound):
		d.Code, d.Entity, d.ID, d.Rule = CodeNotFound, notFound.ParamName, sanitize(notFound.ID), "exists"
	case IsValidation(err):
		d.Code = CodeValidation
		switch v := outermostValidation(err).(type) {
		case *ValueIsRequiredError:
			d.Entity, d.Rule = v.ParamName, "required"
		case *ValueIsOutOfRangeError:
			d.Entity, d.Rule = v.ParamName, fmt.Sprintf("between %s and %s", sanitize(v.Min), sanitize(v.Max))
		case *ValueIsInvalidError:
			d.Entity, d.Rule = v.ParamName, "invalid"
		}
	case errors.Is(err, ErrTransientStore):
		d.Code, d.Message, d.Rule = CodeTransientStore, "the store is temporarily unavailable", "retry"
	default:
		d.Code, d.Message = CodeInternal, "internal error"
	}
	return d
}

// outermostValidation walks the chain depth first and returns the first validation error
// it meets, so the parameter a caller named wins over the one its cause named.
func outermostValidation(err error) error {
	switch err.(type) {
	case *ValueIsRequiredError, *ValueIsInvalidError, *ValueIsOutOfRangeError:
		return err
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		if next := u.Unwrap(); next != nil {
			return outermostValidation(next)
		}
	case interface{ Unwrap() []error }:
		for _, next := range u.Unwrap() {
			if found := outermostValidation(next); found != nil {
				return found
			}
		}
	}
	return nil
}
