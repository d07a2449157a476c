package impl

import (
	"context"
	"errors"
	"fmt"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
	"github.com/Decentr-net/agora/internal/storage"
)

func (s srv) CanView(ctx context.Context, viewer, target uint64) (bool, error) {
	return canView(ctx, s.s, viewer, target)
}

// canView decides whether viewer may see target's content:
// owner always can, public accounts are visible to everyone, private ones to followers only.
func canView(ctx context.Context, s storage.Storage, viewer, target uint64) (bool, error) {
	if viewer == target {
		return true, nil
	}

	a, err := s.GetAccount(ctx, target)
	if err != nil {
		return false, wrapNotFound(err, "failed to get target account")
	}

	return canViewAccount(ctx, s, viewer, a)
}

func canViewAccount(ctx context.Context, s storage.Storage, viewer uint64, target *entities.Account) (bool, error) {
	if viewer == target.ID || !target.IsPrivate {
		return true, nil
	}

	if _, err := s.GetFollow(ctx, viewer, target.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("failed to get follow: %w", err)
	}

	return true, nil
}

// authorize returns service.ErrPrivacyDenied when viewer can not see target's content.
func authorize(ctx context.Context, s storage.Storage, viewer, target uint64) error {
	ok, err := canView(ctx, s, viewer, target)
	if err != nil {
		return err
	}

	if !ok {
		return service.ErrPrivacyDenied
	}

	return nil
}
