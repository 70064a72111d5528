// Package actiontoken models DeferredActionToken: a short opaque single-use bearer
// credential bound to an action kind and an ordered list of target IDs.
package actiontoken

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
)

// KeyBytes of entropy per token; encodes to 24 URL-safe characters.
const KeyBytes = 18

// Kind is the action a token applies when resolved.
type Kind string

const (
	BulkMarkDelivered  Kind = "bulk-mark-delivered"
	BulkMarkFailed     Kind = "bulk-mark-failed"
	ConfirmSalaryBatch Kind = "confirm-salary-batch"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case BulkMarkDelivered, BulkMarkFailed, ConfirmSalaryBatch:
		return k, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("token kind", fmt.Errorf("%q is not a token kind", s))
	}
}

// TargetsPackages is true for the bulk package kinds.
func (k Kind) TargetsPackages() bool {
	return k == BulkMarkDelivered || k == BulkMarkFailed
}

var ErrTokenIsNotConstructed = errors.New("Token must be created via New constructor")

type Token struct {
	key        string
	kind       Kind
	targets    []kernel.UUID
	createdAt  time.Time
	expiresAt  *time.Time
	consumedAt *time.Time
	consumedBy string
	createdBy  string

	isConstructed bool
}

type Snapshot struct {
	Key        string
	Kind       Kind
	Targets    []kernel.UUID
	CreatedAt  time.Time
	ExpiresAt  *time.Time
	ConsumedAt *time.Time
	ConsumedBy string
	CreatedBy  string
}

// GenerateKey returns a random URL-safe key read from crypto/rand.
func GenerateKey() (string, error) {
	buf := make([]byte, KeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// New builds a redeemable token. Duplicate targets are dropped, keeping first-seen order.
// A ttl of zero means the token never expires.
func New(key string, kind Kind, targets []kernel.UUID, createdBy string, at time.Time, ttl time.Duration) (*Token, error) {
	if ttl < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("ttl", fmt.Errorf("%s is negative", ttl))
	}
	var expiresAt *time.Time
	if ttl > 0 {
		e := at.Add(ttl)
		expiresAt = &e
	}
	return Restore(Snapshot{
		Key:       key,
		Kind:      kind,
		Targets:   dedupe(targets),
		CreatedAt: at,
		ExpiresAt: expiresAt,
		CreatedBy: createdBy,
	})
}

func Restore(s Snapshot) (*Token, error) {
	var errList []error
	if s.Key == "" {
		errList = append(errList, errs.NewValueIsRequiredError("token key"))
	}
	if _, err := ParseKind(string(s.Kind)); err != nil {
		errList = append(errList, err)
	}
	if len(s.Targets) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("token targets"))
	}
	for i, id := range s.Targets {
		if err := id.Validate(); err != nil {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("targets[%d]", i), err))
		}
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	targets := make([]kernel.UUID, len(s.Targets))
	copy(targets, s.Targets)
	return &Token{
		key:           s.Key,
		kind:          s.Kind,
		targets:       targets,
		createdAt:     s.CreatedAt,
		expiresAt:     s.ExpiresAt,
		consumedAt:    s.ConsumedAt,
		consumedBy:    s.ConsumedBy,
		createdBy:     s.CreatedBy,
		isConstructed: true,
	}, nil
}

func (t *Token) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTokenIsNotConstructed
	}
	return nil
}

func (t *Token) Key() string            { return t.key }
func (t *Token) Kind() Kind             { return t.kind }
func (t *Token) CreatedAt() time.Time   { return t.createdAt }
func (t *Token) ExpiresAt() *time.Time  { return t.expiresAt }
func (t *Token) ConsumedAt() *time.Time { return t.consumedAt }
func (t *Token) ConsumedBy() string     { return t.consumedBy }
func (t *Token) CreatedBy() string      { return t.createdBy }
func (t *Token) IsConsumed() bool       { return t.consumedAt != nil }

// Targets returns a copy of the ordered target IDs.
func (t *Token) Targets() []kernel.UUID {
	out := make([]kernel.UUID, len(t.targets))
	copy(out, t.targets)
	return out
}

// CheckRedeemable reports why the token can no longer be resolved at now.
func (t *Token) CheckRedeemable(now time.Time) error {
	if t.consumedAt != nil {
		return errs.NewTokenAlreadyConsumedError(t.key)
	}
	if t.expiresAt != nil && !now.Before(*t.expiresAt) {
		return errs.NewTokenExpiredError(t.key)
	}
	return nil
}

// Consume marks the token used. The store must persist it with a compare-and-set on
// consumed_at so that only one resolver wins.
func (t *Token) Consume(by kernel.Actor, now time.Time) error {
	if err := t.CheckRedeemable(now); err != nil {
		return err
	}
	if err := by.Validate(); err != nil {
		return err
	}
	consumedAt := now
	t.consumedAt = &consumedAt
	t.consumedBy = by.ID()
	return nil
}

func (t *Token) Snapshot() Snapshot {
	return Snapshot{
		Key:        t.key,
		Kind:       t.kind,
		Targets:    t.Targets(),
		CreatedAt:  t.createdAt,
		ExpiresAt:  t.expiresAt,
		ConsumedAt: t.consumedAt,
		ConsumedBy: t.consumedBy,
		CreatedBy:  t.createdBy,
	}
}

func dedupe(ids []kernel.UUID) []kernel.UUID {
	seen := make(map[kernel.UUID]struct{}, len(ids))
	out := make([]kernel.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
