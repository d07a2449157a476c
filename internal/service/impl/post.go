package impl

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
	"github.com/Decentr-net/agora/internal/snowflake"
	"github.com/Decentr-net/agora/internal/storage"
)

const (
	createPostAction = "create_post"
	deletePostAction = "delete_post"
)

func (s srv) CreatePost(ctx context.Context, owner uint64, p *service.CreatePostParams) (*entities.Post, error) {
	post := &entities.Post{
		ID:       s.ids.Generate(),
		OwnerID:  owner,
		MediaURL: p.MediaURL,
		Caption:  p.Caption,
		Tags:     lo.Uniq(p.Tags),
	}
	post.CreatedAt = snowflake.TimestampOf(post.ID)

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		if _, err := tx.GetAccount(ctx, owner); err != nil {
			return wrapNotFound(err, "failed to get owner account")
		}

		if err := tx.CreatePost(ctx, post); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: tagged account does not exist", service.ErrInvalidRequest)
			}
			return fmt.Errorf("failed to create post: %w", err)
		}

		return nil
	}); err != nil {
		return nil, observe(createPostAction, err)
	}

	return post, observe(createPostAction, nil)
}

func (s srv) DeletePost(ctx context.Context, requester, id uint64) error {
	return observe(deletePostAction, s.s.InTx(ctx, func(tx storage.Storage) error {
		p, err := tx.GetPost(ctx, id)
		if err != nil {
			return wrapNotFound(err, "failed to get post")
		}

		if p.IsDeleted() {
			return service.ErrNotFound
		}

		if p.OwnerID != requester {
			return service.ErrForbidden
		}

		return wrapNotFound(tx.DeletePost(ctx, id, s.now()), "failed to delete post")
	}))
}

func (s srv) GetPost(ctx context.Context, viewer, id uint64) (*service.Post, error) {
	p, err := s.livePost(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorize(ctx, s.s, viewer, p.OwnerID); err != nil {
		return nil, err
	}

	pp, err := s.decoratePosts(ctx, viewer, []*entities.Post{p})
	if err != nil {
		return nil, err
	}

	return pp[0], nil
}

func (s srv) ListPosts(ctx context.Context, viewer, owner uint64, p service.Page) ([]*service.Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := authorize(ctx, s.s, viewer, owner); err != nil {
		return nil, err
	}

	pp, err := s.s.ListPosts(ctx, owner, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return s.decoratePosts(ctx, viewer, pp)
}

// ListTaggedPosts returns posts where account is tagged.
// Posts of accounts which are hidden from viewer are filtered out, so a page may be shorter than take.
func (s srv) ListTaggedPosts(ctx context.Context, viewer, account uint64, p service.Page) ([]*service.Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := authorize(ctx, s.s, viewer, account); err != nil {
		return nil, err
	}

	pp, err := s.s.ListTaggedPosts(ctx, account, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list tagged posts: %w", err)
	}

	visible := make(map[uint64]bool)
	for _, owner := range lo.Uniq(lo.Map(pp, func(p *entities.Post, _ int) uint64 { return p.OwnerID })) {
		ok, err := canView(ctx, s.s, viewer, owner)
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			return nil, err
		}
		visible[owner] = ok
	}

	return s.decoratePosts(ctx, viewer, lo.Filter(pp, func(p *entities.Post, _ int) bool {
		return visible[p.OwnerID]
	}))
}

// livePost returns not deleted post.
func (s srv) livePost(ctx context.Context, id uint64) (*entities.Post, error) {
	p, err := s.s.GetPost(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "failed to get post")
	}

	if p.IsDeleted() {
		return nil, service.ErrNotFound
	}

	return p, nil
}

// decoratePosts fills engagement counters computed from likes and comments.
func (s srv) decoratePosts(ctx context.Context, viewer uint64, pp []*entities.Post) ([]*service.Post, error) {
	if len(pp) == 0 {
		return []*service.Post{}, nil
	}

	ids := lo.Map(pp, func(p *entities.Post, _ int) uint64 { return p.ID })

	likes, err := s.s.CountLikes(ctx, entities.PostSubject, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	comments, err := s.s.CountComments(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	liked, err := s.s.GetLiked(ctx, viewer, entities.PostSubject, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to get liked: %w", err)
	}

	return lo.Map(pp, func(p *entities.Post, _ int) *service.Post {
		return &service.Post{
			Post:     *p,
			Likes:    likes[p.ID],
			Comments: comments[p.ID],
			Liked:    liked[p.ID],
		}
	}), nil
}
