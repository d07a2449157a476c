// Package storage contains a storage interface.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Decentr-net/agora/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound ...
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when unique constraint prevents insertion.
var ErrAlreadyExists = errors.New("already exists")

// Storage provides methods for interacting with database.
type Storage interface {
	// InTx runs f in a transaction. Nested calls join the outer transaction.
	InTx(ctx context.Context, f func(s Storage) error) error

	CreateAccount(ctx context.Context, p *CreateAccountParams) error
	GetAccount(ctx context.Context, id uint64) (*entities.Account, error)
	GetAccountByHandle(ctx context.Context, handle string) (*entities.Account, error)
	UpdateProfile(ctx context.Context, id uint64, p *UpdateProfileParams) error

	CreateFollow(ctx context.Context, e *entities.FollowEdge) error
	GetFollow(ctx context.Context, follower, following uint64) (*entities.FollowEdge, error)
	DeleteFollow(ctx context.Context, follower, following uint64) (uint64, error)
	ListFollowers(ctx context.Context, account uint64, limit, offset uint64) ([]*entities.Account, error)
	ListFollowing(ctx context.Context, account uint64, limit, offset uint64) ([]*entities.Account, error)
	CountFollows(ctx context.Context, account uint64) (followers uint64, following uint64, err error)

	CreatePost(ctx context.Context, p *entities.Post) error
	GetPost(ctx context.Context, id uint64) (*entities.Post, error)
	DeletePost(ctx context.Context, id uint64, timestamp time.Time) error
	ListPosts(ctx context.Context, owner uint64, limit, offset uint64) ([]*entities.Post, error)
	ListTaggedPosts(ctx context.Context, account uint64, limit, offset uint64) ([]*entities.Post, error)
	CountPosts(ctx context.Context, owner uint64) (uint64, error)

	CreateLike(ctx context.Context, l *entities.Like) error
	DeleteLike(ctx context.Context, subject entities.Subject, account uint64) (uint64, error)
	CountLikes(ctx context.Context, t entities.SubjectType, id ...uint64) (map[uint64]uint64, error)
	GetLiked(ctx context.Context, account uint64, t entities.SubjectType, id ...uint64) (map[uint64]bool, error)

	CreateComment(ctx context.Context, c *entities.Comment) error
	GetComment(ctx context.Context, id uint64) (*entities.Comment, error)
	DeleteComment(ctx context.Context, id uint64, timestamp time.Time) error
	ListComments(ctx context.Context, post uint64, limit, offset uint64) ([]*entities.Comment, error)
	ListReplies(ctx context.Context, comment uint64, limit, offset uint64) ([]*entities.Comment, error)
	CountReplies(ctx context.Context, comment ...uint64) (map[uint64]uint64, error)
	CountComments(ctx context.Context, post ...uint64) (map[uint64]uint64, error)

	CreateNotification(ctx context.Context, n *entities.Notification) error
	DeleteNotification(ctx context.Context, recipient uint64, category entities.NotificationCategory, source uint64) (bool, error)
	ListNotifications(ctx context.Context, recipient uint64, limit, offset uint64) ([]*entities.Notification, error)
}

// CreateAccountParams ...
type CreateAccountParams struct {
	ID             uint64
	Handle         string
	CredentialHash string
	DisplayName    string
	Bio            string
	AvatarURL      string
	IsPrivate      bool
}

// UpdateProfileParams contains fields to be updated. Nil fields are kept as is.
type UpdateProfileParams struct {
	Handle      *string
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	IsPrivate   *bool
}
