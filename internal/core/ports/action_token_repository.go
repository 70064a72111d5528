package ports

import (
	"context"

	"lastmile/internal/core/domain/model/actiontoken"
)

// ActionTokenRepository stores deferred action tokens.
type ActionTokenRepository interface {
	Add(ctx context.Context, t *actiontoken.Token) error

	// Get returns *errs.TokenError wrapping errs.ErrTokenNotFound when the key is unknown.
	Get(ctx context.Context, key string) (*actiontoken.Token, error)

	// MarkConsumed writes t's consumption marker with a compare-and-set on a null
	// consumed_at. Exactly one caller wins; the others get
	// *errs.TokenError wrapping errs.ErrTokenAlreadyConsumed.
	MarkConsumed(ctx context.Context, t *actiontoken.Token) error
}
