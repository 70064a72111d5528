// Package driver models the people of the fleet: drivers that run routes and
// managers that finalize routes and confirm salary payments.
package driver

import (
	"errors"
	"strings"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
)

var ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver constructor")

// Driver is identified internally by id and externally by externalID, the stable
// chat identity the bot and the notifier address.
type Driver struct {
	id          kernel.UUID
	externalID  string
	displayName string
	role        kernel.Role
	payRate     PayRate
	createdAt   time.Time

	isConstructed bool
}

type Snapshot struct {
	ID          kernel.UUID
	ExternalID  string
	DisplayName string
	Role        kernel.Role
	PayRate     PayRate
	CreatedAt   time.Time
}

func NewDriver(id kernel.UUID, externalID, displayName string, role kernel.Role, payRate PayRate,
	at time.Time) (*Driver, error) {
	return Restore(Snapshot{
		ID:          id,
		ExternalID:  externalID,
		DisplayName: displayName,
		Role:        role,
		PayRate:     payRate,
		CreatedAt:   at,
	})
}

func Restore(s Snapshot) (*Driver, error) {
	var errList []error
	errList = append(errList, s.ID.Validate())
	externalID := strings.TrimSpace(s.ExternalID)
	if externalID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("external id"))
	}
	name := strings.TrimSpace(s.DisplayName)
	if name == "" {
		errList = append(errList, errs.NewValueIsRequiredError("display name"))
	}
	if _, err := kernel.ParseRole(string(s.Role)); err != nil {
		errList = append(errList, err)
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	return &Driver{
		id:            s.ID,
		externalID:    externalID,
		displayName:   name,
		role:          s.Role,
		payRate:       s.PayRate,
		createdAt:     s.CreatedAt,
		isConstructed: true,
	}, nil
}

func (d *Driver) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDriverIsNotConstructed
	}
	return nil
}

func (d *Driver) ID() kernel.UUID      { return d.id }
func (d *Driver) ExternalID() string   { return d.externalID }
func (d *Driver) DisplayName() string  { return d.displayName }
func (d *Driver) Role() kernel.Role    { return d.role }
func (d *Driver) PayRate() PayRate     { return d.payRate }
func (d *Driver) CreatedAt() time.Time { return d.createdAt }
func (d *Driver) IsManager() bool      { return d.role == kernel.RoleManager }

func (d *Driver) Snapshot() Snapshot {
	return Snapshot{
		ID:          d.id,
		ExternalID:  d.externalID,
		DisplayName: d.displayName,
		Role:        d.role,
		PayRate:     d.payRate,
		CreatedAt:   d.createdAt,
	}
}
