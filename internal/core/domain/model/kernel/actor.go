package kernel

import (
	"strings"

	"lastmile/internal/pkg/errs"
)

type Role string

const (
	RoleManager Role = "manager"
	RoleDriver  Role = "driver"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleManager, RoleDriver:
		return r, nil
	default:
		return "", errs.NewValueIsInvalidError("role")
	}
}

func (r Role) String() string {
	return string(r)
}

// Actor is whoever requested a transition: a manager or driver reached through
// the web API or the bot, or the scheduler itself.
type Actor struct {
	id   string
	role Role
}

// SchedulerActor is used for transitions driven by scheduled jobs.
var SchedulerActor = Actor{id: "scheduler", role: RoleManager}

func NewActor(id string, role Role) (Actor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Actor{}, errs.NewValueIsRequiredError("actor id")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Actor{}, err
	}
	return Actor{id: id, role: role}, nil
}

func (a Actor) ID() string {
	return a.id
}

func (a Actor) Role() Role {
	return a.role
}

func (a Actor) IsManager() bool {
	return a.role == RoleManager
}

func (a Actor) Validate() error {
	if a.id == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	return nil
}

// RequireManager returns ActorNotPermittedError unless a is a manager.
func (a Actor) RequireManager(action string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !a.IsManager() {
		return errs.NewActorNotPermittedError(action, a.id)
	}
	return nil
}
