// Package tokenrepo persists deferred action tokens.
package tokenrepo

import (
	"time"

	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/kernel"

	"github.com/lib/pq"
)

// TokenDTO represents the database structure for persisting action tokens.
// Targets are stored as a text array of UUIDs in registration order.
type TokenDTO struct {
	Key        string         `gorm:"type:varchar(64);primaryKey"`
	Kind       string         `gorm:"type:varchar(32);not null"`
	TargetIDs  pq.StringArray `gorm:"type:text[];not null"`
	CreatedBy  string         `gorm:"type:varchar(64);not null"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime:false"`
	ExpiresAt  *time.Time
	ConsumedAt *time.Time
	ConsumedBy string `gorm:"type:varchar(64);not null"`
}

func (TokenDTO) TableName() string {
	return "action_tokens"
}

func fromDomain(t *actiontoken.Token) TokenDTO {
	targets := t.Targets()
	ids := make(pq.StringArray, 0, len(targets))
	for _, id := range targets {
		ids = append(ids, id.String())
	}

	return TokenDTO{
		Key:        t.Key(),
		Kind:       string(t.Kind()),
		TargetIDs:  ids,
		CreatedBy:  t.CreatedBy(),
		CreatedAt:  t.CreatedAt(),
		ExpiresAt:  t.ExpiresAt(),
		ConsumedAt: t.ConsumedAt(),
		ConsumedBy: t.ConsumedBy(),
	}
}

func toDomain(dto TokenDTO) (*actiontoken.Token, error) {
	kind, err := actiontoken.ParseKind(dto.Kind)
	if err != nil {
		return nil, err
	}
	targets, err := kernel.UUIDsFromStrings(dto.TargetIDs)
	if err != nil {
		return nil, err
	}

	return actiontoken.Restore(actiontoken.Snapshot{
		Key:        dto.Key,
		Kind:       kind,
		Targets:    targets,
		CreatedAt:  dto.CreatedAt,
		ExpiresAt:  dto.ExpiresAt,
		ConsumedAt: dto.ConsumedAt,
		ConsumedBy: dto.ConsumedBy,
		CreatedBy:  dto.CreatedBy,
	})
}
