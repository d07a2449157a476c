package impl

import (
	"context"
	"errors"
	"fmt"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
	"github.com/Decentr-net/agora/internal/storage"
)

const someone = "Someone"

const (
	followText       = "%s started following you"
	likePostText     = "%s liked your post"
	likeCommentText  = "%s liked your comment"
	commentPostText  = "%s commented on your post"
	replyCommentText = "%s replied to your comment"
)

// notice describes a notification to be sent as a side effect of an action.
// text is a format string which gets actor's handle.
type notice struct {
	recipient uint64
	actor     uint64
	category  entities.NotificationCategory
	source    uint64
	text      string
}

// notify appends notification to recipient's log. Self-notifications are skipped.
// It should be called within the transaction of the action.
func (s srv) notify(ctx context.Context, tx storage.Storage, n notice) error {
	if n.recipient == n.actor {
		return nil
	}

	handle := someone
	switch a, err := tx.GetAccount(ctx, n.actor); {
	case err == nil:
		if a.Handle != "" {
			handle = a.Handle
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return fmt.Errorf("failed to get actor account: %w", err)
	}

	if err := tx.CreateNotification(ctx, &entities.Notification{
		ID:          s.ids.Generate(),
		RecipientID: n.recipient,
		ActorID:     n.actor,
		Category:    n.category,
		SourceID:    n.source,
		Description: fmt.Sprintf(n.text, handle),
	}); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// retract removes notification produced by source entity.
// It should be called within the transaction of the inverse action.
func (s srv) retract(ctx context.Context, tx storage.Storage, recipient uint64, category entities.NotificationCategory, source uint64) error {
	ok, err := tx.DeleteNotification(ctx, recipient, category, source)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	if !ok {
		log.WithField("recipient", recipient).
			WithField("category", category).
			WithField("source", source).
			Debug("notification to retract not found")
	}

	return nil
}

func (s srv) ListNotifications(ctx context.Context, account uint64, p service.Page) ([]*entities.Notification, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	nn, err := s.s.ListNotifications(ctx, account, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return nn, nil
}
