package impl

import (
	"context"
	"errors"
	"fmt"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
	"github.com/Decentr-net/agora/internal/snowflake"
	"github.com/Decentr-net/agora/internal/storage"
)

const (
	followAction   = "follow"
	unfollowAction = "unfollow"
)

func (s srv) Follow(ctx context.Context, actor, target uint64) (*entities.FollowEdge, error) {
	if actor == target {
		return nil, observe(followAction, service.ErrCannotFollowSelf)
	}

	var edge *entities.FollowEdge

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		if _, err := tx.GetAccount(ctx, target); err != nil {
			return wrapNotFound(err, "failed to get target account")
		}

		// fast path, unique constraint is the guard
		switch _, err := tx.GetFollow(ctx, actor, target); {
		case err == nil:
			return service.ErrAlreadyFollowing
		case !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("failed to get follow: %w", err)
		}

		e := &entities.FollowEdge{
			ID:          s.ids.Generate(),
			FollowerID:  actor,
			FollowingID: target,
		}
		e.CreatedAt = snowflake.TimestampOf(e.ID)

		if err := tx.CreateFollow(ctx, e); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return service.ErrAlreadyFollowing
			}
			return wrapNotFound(err, "failed to create follow")
		}

		if err := s.notify(ctx, tx, notice{
			recipient: target,
			actor:     actor,
			category:  entities.FollowNotification,
			source:    e.ID,
			text:      followText,
		}); err != nil {
			return err
		}

		edge = e
		return nil
	}); err != nil {
		return nil, observe(followAction, err)
	}

	return edge, observe(followAction, nil)
}

func (s srv) Unfollow(ctx context.Context, actor, target uint64) error {
	return observe(unfollowAction, s.s.InTx(ctx, func(tx storage.Storage) error {
		if _, err := tx.GetAccount(ctx, target); err != nil {
			return wrapNotFound(err, "failed to get target account")
		}

		id, err := tx.DeleteFollow(ctx, actor, target)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return service.ErrNotFollowing
			}
			return fmt.Errorf("failed to delete follow: %w", err)
		}

		return s.retract(ctx, tx, target, entities.FollowNotification, id)
	}))
}

func (s srv) ListFollowers(ctx context.Context, viewer, account uint64, p service.Page) ([]*entities.Account, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := authorize(ctx, s.s, viewer, account); err != nil {
		return nil, err
	}

	aa, err := s.s.ListFollowers(ctx, account, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}

	return aa, nil
}

func (s srv) ListFollowing(ctx context.Context, viewer, account uint64, p service.Page) ([]*entities.Account, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := authorize(ctx, s.s, viewer, account); err != nil {
		return nil, err
	}

	aa, err := s.s.ListFollowing(ctx, account, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}

	return aa, nil
}
