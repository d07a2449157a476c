// Package service contains interface for service business-logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Decentr-net/agora/internal/entities"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

// MaxTake is the biggest allowed page size.
const MaxTake = 100

// ErrInvalidRequest is returned when request's arguments are not valid.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound is returned when account, post or comment does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when request contradicts current state.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when requester is not the owner of an entity.
var ErrForbidden = errors.New("forbidden")

// ErrPrivacyDenied is returned when requester is not allowed to see account's content.
var ErrPrivacyDenied = errors.New("account is private")

// nolint:gochecknoglobals
var (
	// ErrCannotFollowSelf ...
	ErrCannotFollowSelf = fmt.Errorf("%w: cannot follow self", ErrConflict)
	// ErrAlreadyFollowing ...
	ErrAlreadyFollowing = fmt.Errorf("%w: already following", ErrConflict)
	// ErrNotFollowing ...
	ErrNotFollowing = fmt.Errorf("%w: not following", ErrConflict)
	// ErrHandleTaken ...
	ErrHandleTaken = fmt.Errorf("%w: handle is taken", ErrConflict)

	// ErrInvalidPage ...
	ErrInvalidPage = fmt.Errorf("%w: take and page should be positive, take should not exceed %d, page should be in range", ErrInvalidRequest, MaxTake)
	// ErrInvalidParent is returned when reply's parent is not a live top-level comment of the same post.
	ErrInvalidParent = fmt.Errorf("%w: parent should be a top-level comment of the post", ErrInvalidRequest)
	// ErrInvalidText ...
	ErrInvalidText = fmt.Errorf("%w: invalid text", ErrInvalidRequest)
	// ErrInvalidSubject ...
	ErrInvalidSubject = fmt.Errorf("%w: invalid subject", ErrInvalidRequest)
	// ErrInvalidHandle ...
	ErrInvalidHandle = fmt.Errorf("%w: invalid handle", ErrInvalidRequest)
)

// Service is the consistency coordinator of social graph and engagements.
// Every mutating method runs in a single transaction.
type Service interface {
	CreateAccount(ctx context.Context, p *CreateAccountParams) (*entities.Account, error)
	UpdateProfile(ctx context.Context, account uint64, p *UpdateProfileParams) (*entities.Account, error)
	GetProfile(ctx context.Context, viewer uint64, handle string) (*entities.Profile, error)
	GetAccountByHandle(ctx context.Context, handle string) (*entities.Account, error)

	CanView(ctx context.Context, viewer, target uint64) (bool, error)

	Follow(ctx context.Context, actor, target uint64) (*entities.FollowEdge, error)
	Unfollow(ctx context.Context, actor, target uint64) error
	ListFollowers(ctx context.Context, viewer, account uint64, p Page) ([]*entities.Account, error)
	ListFollowing(ctx context.Context, viewer, account uint64, p Page) ([]*entities.Account, error)

	CreatePost(ctx context.Context, owner uint64, p *CreatePostParams) (*entities.Post, error)
	DeletePost(ctx context.Context, requester, post uint64) error
	GetPost(ctx context.Context, viewer, post uint64) (*Post, error)
	ListPosts(ctx context.Context, viewer, owner uint64, p Page) ([]*Post, error)
	ListTaggedPosts(ctx context.Context, viewer, account uint64, p Page) ([]*Post, error)

	Like(ctx context.Context, actor uint64, subject entities.Subject) error
	Unlike(ctx context.Context, actor uint64, subject entities.Subject) error
	CountLikes(ctx context.Context, subject entities.Subject) (uint64, error)

	CreateComment(ctx context.Context, author, post uint64, text string, parent *uint64) (*entities.Comment, error)
	DeleteComment(ctx context.Context, requester, comment uint64) error
	ListComments(ctx context.Context, viewer, post uint64, p Page) ([]*Comment, error)
	ListReplies(ctx context.Context, viewer, comment uint64, p Page) ([]*Comment, error)

	ListNotifications(ctx context.Context, account uint64, p Page) ([]*entities.Notification, error)
}

// Page is 1-indexed pagination window.
type Page struct {
	Take uint64
	Page uint64
}

// Validate checks page bounds. Offset of a valid page always fits into int64.
func (p Page) Validate() error {
	if p.Take == 0 || p.Page == 0 || p.Take > MaxTake {
		return ErrInvalidPage
	}

	if p.Page-1 > math.MaxInt64/p.Take {
		return ErrInvalidPage
	}

	return nil
}

// Limit ...
func (p Page) Limit() uint64 {
	return p.Take
}

// Offset ...
func (p Page) Offset() uint64 {
	return (p.Page - 1) * p.Take
}

// CreateAccountParams ...
type CreateAccountParams struct {
	Handle         string
	CredentialHash string
	DisplayName    string
	Bio            string
	AvatarURL      string
	IsPrivate      bool
}

// UpdateProfileParams ...
type UpdateProfileParams struct {
	Handle      *string
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	IsPrivate   *bool
}

// CreatePostParams ...
type CreatePostParams struct {
	MediaURL string
	Caption  string
	Tags     []uint64
}

// Post is a post with engagement counters computed at read time.
type Post struct {
	entities.Post
	Likes    uint64
	Comments uint64
	Liked    bool
}

// Comment is a comment with engagement counters computed at read time.
// Replies is always zero for replies.
type Comment struct {
	entities.Comment
	Likes   uint64
	Replies uint64
	Liked   bool
}
