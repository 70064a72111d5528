package tokenrepo

import (
	"context"
	"errors"
	"fmt"

	"lastmile/internal/adapters/out/postgres/pgerr"
	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormTokenRepository implements ActionTokenRepository using GORM.
type GormTokenRepository struct {
	db *gorm.DB
}

func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

func (r *GormTokenRepository) Add(ctx context.Context, t *actiontoken.Token) error {
	if err := t.Validate(); err != nil {
		return err
	}

	dto := fromDomain(t)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolation(err, "action_tokens_pkey") {
			return errs.NewValueIsInvalidErrorWithCause("token key", fmt.Errorf("%s already exists", t.Key()))
		}
		return pgerr.Translate("add action token", err)
	}
	return nil
}

func (r *GormTokenRepository) Get(ctx context.Context, key string) (*actiontoken.Token, error) {
	if key == "" {
		return nil, errs.NewTokenNotFoundError(key)
	}

	var dto TokenDTO
	if err := r.db.WithContext(ctx).First(&dto, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewTokenNotFoundError(key)
		}
		return nil, pgerr.Translate("get action token", err)
	}

	return toDomain(dto)
}

// MarkConsumed sets the consumption marker only while consumed_at is still NULL.
// Concurrent redeemers race on that predicate and exactly one of them updates the row.
func (r *GormTokenRepository) MarkConsumed(ctx context.Context, t *actiontoken.Token) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !t.IsConsumed() {
		return errs.NewValueIsInvalidErrorWithCause("token", errors.New("token carries no consumption marker"))
	}

	result := r.db.WithContext(ctx).
		Model(&TokenDTO{}).
		Where("key = ? AND consumed_at IS NULL", t.Key()).
		Updates(map[string]any{
			"consumed_at": t.ConsumedAt(),
			"consumed_by": t.ConsumedBy(),
		})
	if result.Error != nil {
		return pgerr.Translate("consume action token", result.Error)
	}

	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&TokenDTO{}).Where("key = ?", t.Key()).Count(&count).Error; err != nil {
		return pgerr.Translate("check action token", err)
	}
	if count == 0 {
		return errs.NewTokenNotFoundError(t.Key())
	}
	return errs.NewTokenAlreadyConsumedError(t.Key())
}
