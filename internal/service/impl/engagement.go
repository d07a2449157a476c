package impl

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
	"github.com/Decentr-net/agora/internal/snowflake"
	"github.com/Decentr-net/agora/internal/storage"
)

// MaxCommentLength is the maximum length of comment's plain text in characters.
const MaxCommentLength = 2200

const (
	likeAction          = "like"
	unlikeAction        = "unlike"
	createCommentAction = "create_comment"
	deleteCommentAction = "delete_comment"
)

// owners describes who is concerned by an engagement on a subject.
type owners struct {
	// recipient receives like notifications.
	recipient uint64
	// content owns the post, visibility is evaluated against it.
	content uint64
	// deleted is true when the subject or its post is tombstoned.
	deleted bool
}

func subjectOwners(ctx context.Context, s storage.Storage, subject entities.Subject) (owners, error) {
	switch subject.Type {
	case entities.PostSubject:
		p, err := s.GetPost(ctx, subject.ID)
		if err != nil {
			return owners{}, wrapNotFound(err, "failed to get post")
		}

		return owners{recipient: p.OwnerID, content: p.OwnerID, deleted: p.IsDeleted()}, nil
	case entities.CommentSubject:
		c, err := s.GetComment(ctx, subject.ID)
		if err != nil {
			return owners{}, wrapNotFound(err, "failed to get comment")
		}

		p, err := s.GetPost(ctx, c.PostID)
		if err != nil {
			return owners{}, wrapNotFound(err, "failed to get post")
		}

		return owners{recipient: c.AuthorID, content: p.OwnerID, deleted: c.IsDeleted() || p.IsDeleted()}, nil
	default:
		return owners{}, service.ErrInvalidSubject
	}
}

func (s srv) Like(ctx context.Context, actor uint64, subject entities.Subject) error {
	if !subject.Type.Valid() {
		return observe(likeAction, service.ErrInvalidSubject)
	}

	return observe(likeAction, s.s.InTx(ctx, func(tx storage.Storage) error {
		o, err := subjectOwners(ctx, tx, subject)
		if err != nil {
			return err
		}

		if o.deleted {
			return service.ErrNotFound
		}

		if err := authorize(ctx, tx, actor, o.content); err != nil {
			return err
		}

		l := &entities.Like{
			ID:        s.ids.Generate(),
			Subject:   subject,
			AccountID: actor,
		}
		l.CreatedAt = snowflake.TimestampOf(l.ID)

		if err := tx.CreateLike(ctx, l); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return nil
			}
			return wrapNotFound(err, "failed to create like")
		}

		text := likePostText
		if subject.Type == entities.CommentSubject {
			text = likeCommentText
		}

		return s.notify(ctx, tx, notice{
			recipient: o.recipient,
			actor:     actor,
			category:  entities.LikeNotification,
			source:    l.ID,
			text:      text,
		})
	}))
}

func (s srv) Unlike(ctx context.Context, actor uint64, subject entities.Subject) error {
	if !subject.Type.Valid() {
		return observe(unlikeAction, service.ErrInvalidSubject)
	}

	return observe(unlikeAction, s.s.InTx(ctx, func(tx storage.Storage) error {
		id, err := tx.DeleteLike(ctx, subject, actor)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to delete like: %w", err)
		}

		o, err := subjectOwners(ctx, tx, subject)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				log.WithField("subject", subject).Debug("subject owner is unknown, skip retraction")
				return nil
			}
			return err
		}

		return s.retract(ctx, tx, o.recipient, entities.LikeNotification, id)
	}))
}

func (s srv) CountLikes(ctx context.Context, subject entities.Subject) (uint64, error) {
	if !subject.Type.Valid() {
		return 0, service.ErrInvalidSubject
	}

	m, err := s.s.CountLikes(ctx, subject.Type, subject.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}

	return m[subject.ID], nil
}

func (s srv) CreateComment(ctx context.Context, author, post uint64, text string, parent *uint64) (*entities.Comment, error) {
	// text is kept plain: markup is stripped, entities escaped by the policy are decoded back
	text = strings.TrimSpace(html.UnescapeString(s.p.Sanitize(text)))
	if text == "" || utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, observe(createCommentAction, service.ErrInvalidText)
	}

	var out *entities.Comment

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		p, err := tx.GetPost(ctx, post)
		if err != nil {
			return wrapNotFound(err, "failed to get post")
		}

		if p.IsDeleted() {
			return service.ErrNotFound
		}

		if err := authorize(ctx, tx, author, p.OwnerID); err != nil {
			return err
		}

		n := notice{
			recipient: p.OwnerID,
			actor:     author,
			category:  entities.CommentNotification,
			text:      commentPostText,
		}

		if parent != nil {
			c, err := tx.GetComment(ctx, *parent)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return service.ErrInvalidParent
				}
				return fmt.Errorf("failed to get parent comment: %w", err)
			}

			if c.IsDeleted() || c.IsReply() || c.PostID != post {
				return service.ErrInvalidParent
			}

			n.recipient = c.AuthorID
			n.category = entities.ReplyNotification
			n.text = replyCommentText
		}

		c := &entities.Comment{
			ID:       s.ids.Generate(),
			PostID:   post,
			AuthorID: author,
			ParentID: parent,
			Text:     text,
		}
		c.CreatedAt = snowflake.TimestampOf(c.ID)

		if err := tx.CreateComment(ctx, c); err != nil {
			return wrapNotFound(err, "failed to create comment")
		}

		n.source = c.ID
		if err := s.notify(ctx, tx, n); err != nil {
			return err
		}

		out = c
		return nil
	}); err != nil {
		return nil, observe(createCommentAction, err)
	}

	return out, observe(createCommentAction, nil)
}

func (s srv) DeleteComment(ctx context.Context, requester, id uint64) error {
	return observe(deleteCommentAction, s.s.InTx(ctx, func(tx storage.Storage) error {
		c, err := tx.GetComment(ctx, id)
		if err != nil {
			return wrapNotFound(err, "failed to get comment")
		}

		if c.AuthorID != requester {
			if c.IsDeleted() {
				return service.ErrNotFound
			}
			return service.ErrForbidden
		}

		if c.IsDeleted() {
			return nil
		}

		if err := tx.DeleteComment(ctx, id, s.now()); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// tombstoned concurrently
				return nil
			}
			return fmt.Errorf("failed to delete comment: %w", err)
		}

		var (
			recipient uint64
			category  = entities.CommentNotification
		)

		if c.IsReply() {
			p, err := tx.GetComment(ctx, *c.ParentID)
			if err != nil {
				return wrapNotFound(err, "failed to get parent comment")
			}
			recipient, category = p.AuthorID, entities.ReplyNotification
		} else {
			p, err := tx.GetPost(ctx, c.PostID)
			if err != nil {
				return wrapNotFound(err, "failed to get post")
			}
			recipient = p.OwnerID
		}

		if recipient == requester {
			return nil
		}

		return s.retract(ctx, tx, recipient, category, c.ID)
	}))
}

func (s srv) ListComments(ctx context.Context, viewer, post uint64, p service.Page) ([]*service.Comment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	pst, err := s.livePost(ctx, post)
	if err != nil {
		return nil, err
	}

	if err := authorize(ctx, s.s, viewer, pst.OwnerID); err != nil {
		return nil, err
	}

	cc, err := s.s.ListComments(ctx, post, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return s.decorateComments(ctx, viewer, cc, true)
}

// ListReplies returns live replies of the comment. Replies of a tombstoned comment are still listed.
func (s srv) ListReplies(ctx context.Context, viewer, comment uint64, p service.Page) ([]*service.Comment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c, err := s.s.GetComment(ctx, comment)
	if err != nil {
		return nil, wrapNotFound(err, "failed to get comment")
	}

	pst, err := s.livePost(ctx, c.PostID)
	if err != nil {
		return nil, err
	}

	if err := authorize(ctx, s.s, viewer, pst.OwnerID); err != nil {
		return nil, err
	}

	cc, err := s.s.ListReplies(ctx, comment, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	return s.decorateComments(ctx, viewer, cc, false)
}

func (s srv) decorateComments(ctx context.Context, viewer uint64, cc []*entities.Comment, withReplies bool) ([]*service.Comment, error) {
	if len(cc) == 0 {
		return []*service.Comment{}, nil
	}

	ids := lo.Map(cc, func(c *entities.Comment, _ int) uint64 { return c.ID })

	likes, err := s.s.CountLikes(ctx, entities.CommentSubject, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	liked, err := s.s.GetLiked(ctx, viewer, entities.CommentSubject, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to get liked: %w", err)
	}

	replies := map[uint64]uint64{}
	if withReplies {
		if replies, err = s.s.CountReplies(ctx, ids...); err != nil {
			return nil, fmt.Errorf("failed to count replies: %w", err)
		}
	}

	return lo.Map(cc, func(c *entities.Comment, _ int) *service.Comment {
		return &service.Comment{
			Comment: *c,
			Likes:   likes[c.ID],
			Replies: replies[c.ID],
			Liked:   liked[c.ID],
		}
	}), nil
}
