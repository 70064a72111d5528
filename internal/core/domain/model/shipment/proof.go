package shipment

import (
	"errors"
	"strings"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
)

// ErrDeliveryProofIsNotConstructed is returned when a DeliveryProof was not built by its constructor.
var ErrDeliveryProofIsNotConstructed = errors.New("DeliveryProof must be created via Package.Transition or RestoreDeliveryProof")

// ProofInput is the evidence supplied with a terminal transition.
// Delivered requires ReceiverName and ReceiverDocument; Failed requires Notes and PhotoPath.
type ProofInput struct {
	ReceiverName     string
	ReceiverDocument string
	Notes            string
	PhotoPath        string
	SecondPhotoPath  string
	Location         *kernel.GeoPoint
}

// Validate checks the evidence required for outcome.
func (in ProofInput) Validate(outcome Status) error {
	switch outcome {
	case Delivered:
		var errList []error
		if strings.TrimSpace(in.ReceiverName) == "" {
			errList = append(errList, errs.NewValueIsRequiredError("receiver name"))
		}
		if strings.TrimSpace(in.ReceiverDocument) == "" {
			errList = append(errList, errs.NewValueIsRequiredError("receiver document"))
		}
		return errors.Join(errList...)
	case Failed:
		var errList []error
		if strings.TrimSpace(in.Notes) == "" {
			errList = append(errList, errs.NewValueIsRequiredError("failure notes"))
		}
		if strings.TrimSpace(in.PhotoPath) == "" {
			errList = append(errList, errs.NewValueIsRequiredError("failure photo"))
		}
		return errors.Join(errList...)
	default:
		return outcome.Validate()
	}
}

// DeliveryProof is the immutable evidence of one terminal package transition.
type DeliveryProof struct {
	id               kernel.UUID
	packageID        kernel.UUID
	outcome          Status
	driverID         *kernel.UUID
	capturedBy       string
	receiverName     string
	receiverDocument string
	notes            string
	photoPath        string
	secondPhotoPath  string
	location         *kernel.GeoPoint
	capturedAt       time.Time
	isConstructed    bool
}

// ProofSnapshot carries every field of a DeliveryProof across the persistence boundary.
type ProofSnapshot struct {
	ID               kernel.UUID
	PackageID        kernel.UUID
	Outcome          Status
	DriverID         *kernel.UUID
	CapturedBy       string
	ReceiverName     string
	ReceiverDocument string
	Notes            string
	PhotoPath        string
	SecondPhotoPath  string
	Location         *kernel.GeoPoint
	CapturedAt       time.Time
}

func newDeliveryProof(packageID kernel.UUID, outcome Status, in ProofInput, actor kernel.Actor,
	driverID *kernel.UUID, at time.Time) (*DeliveryProof, error) {
	if err := errors.Join(in.Validate(outcome), actor.Validate()); err != nil {
		return nil, err
	}
	return &DeliveryProof{
		id:               kernel.NewUUID(),
		packageID:        packageID,
		outcome:          outcome,
		driverID:         driverID,
		capturedBy:       actor.ID(),
		receiverName:     strings.TrimSpace(in.ReceiverName),
		receiverDocument: strings.TrimSpace(in.ReceiverDocument),
		notes:            strings.TrimSpace(in.Notes),
		photoPath:        in.PhotoPath,
		secondPhotoPath:  in.SecondPhotoPath,
		location:         in.Location,
		capturedAt:       at,
		isConstructed:    true,
	}, nil
}

// RestoreDeliveryProof rebuilds a proof loaded from storage.
func RestoreDeliveryProof(s ProofSnapshot) (*DeliveryProof, error) {
	if err := errors.Join(s.ID.Validate(), s.PackageID.Validate()); err != nil {
		return nil, err
	}
	if !s.Outcome.IsTerminal() {
		return nil, errs.NewValueIsInvalidError("proof outcome")
	}
	return &DeliveryProof{
		id:               s.ID,
		packageID:        s.PackageID,
		outcome:          s.Outcome,
		driverID:         s.DriverID,
		capturedBy:       s.CapturedBy,
		receiverName:     s.ReceiverName,
		receiverDocument: s.ReceiverDocument,
		notes:            s.Notes,
		photoPath:        s.PhotoPath,
		secondPhotoPath:  s.SecondPhotoPath,
		location:         s.Location,
		capturedAt:       s.CapturedAt,
		isConstructed:    true,
	}, nil
}

func (p *DeliveryProof) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrDeliveryProofIsNotConstructed
	}
	return nil
}

func (p *DeliveryProof) ID() kernel.UUID            { return p.id }
func (p *DeliveryProof) PackageID() kernel.UUID     { return p.packageID }
func (p *DeliveryProof) Outcome() Status            { return p.outcome }
func (p *DeliveryProof) DriverID() *kernel.UUID     { return p.driverID }
func (p *DeliveryProof) CapturedBy() string         { return p.capturedBy }
func (p *DeliveryProof) ReceiverName() string       { return p.receiverName }
func (p *DeliveryProof) ReceiverDocument() string   { return p.receiverDocument }
func (p *DeliveryProof) Notes() string              { return p.notes }
func (p *DeliveryProof) PhotoPath() string          { return p.photoPath }
func (p *DeliveryProof) SecondPhotoPath() string    { return p.secondPhotoPath }
func (p *DeliveryProof) Location() *kernel.GeoPoint { return p.location }
func (p *DeliveryProof) CapturedAt() time.Time      { return p.capturedAt }

func (p *DeliveryProof) Snapshot() ProofSnapshot {
	return ProofSnapshot{
		ID:               p.id,
		PackageID:        p.packageID,
		Outcome:          p.outcome,
		DriverID:         p.driverID,
		CapturedBy:       p.capturedBy,
		ReceiverName:     p.receiverName,
		ReceiverDocument: p.receiverDocument,
		Notes:            p.notes,
		PhotoPath:        p.photoPath,
		SecondPhotoPath:  p.secondPhotoPath,
		Location:         p.location,
		CapturedAt:       p.capturedAt,
	}
}
