// Package impl is implementation of service interface.
package impl

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
	"github.com/Decentr-net/agora/internal/snowflake"
	"github.com/Decentr-net/agora/internal/storage"
)

var log = logrus.WithField("layer", "service").WithField("package", "impl")

// nolint:gochecknoglobals
var actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agora",
	Name:      "actions_total",
	Help:      "Count of coordinated actions by result.",
}, []string{"action", "result"})

var handleRegexp = regexp.MustCompile(`^[a-zA-Z0-9_.]{1,30}$`)

// RecentPostsCount is a size of profile's posts preview.
const RecentPostsCount = 10

// IDGenerator generates unique time-ordered ids.
type IDGenerator interface {
	Generate() uint64
}

// service ...
type srv struct {
	s   storage.Storage
	ids IDGenerator
	p   *bluemonday.Policy
	now func() time.Time
}

// New creates new instance of service.
func New(s storage.Storage, ids IDGenerator) service.Service {
	return srv{
		s:   s,
		ids: ids,
		p:   bluemonday.StrictPolicy(),
		now: time.Now,
	}
}

func (s srv) CreateAccount(ctx context.Context, p *service.CreateAccountParams) (*entities.Account, error) {
	if !handleRegexp.MatchString(p.Handle) {
		return nil, service.ErrInvalidHandle
	}

	id := s.ids.Generate()

	if err := s.s.CreateAccount(ctx, &storage.CreateAccountParams{
		ID:             id,
		Handle:         p.Handle,
		CredentialHash: p.CredentialHash,
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		AvatarURL:      p.AvatarURL,
		IsPrivate:      p.IsPrivate,
	}); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, service.ErrHandleTaken
		}

		return nil, fmt.Errorf("failed to create account on storage side: %w", err)
	}

	return &entities.Account{
		ID:          id,
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		IsPrivate:   p.IsPrivate,
		CreatedAt:   snowflake.TimestampOf(id),
	}, nil
}

func (s srv) UpdateProfile(ctx context.Context, account uint64, p *service.UpdateProfileParams) (*entities.Account, error) {
	if p.Handle != nil && !handleRegexp.MatchString(*p.Handle) {
		return nil, service.ErrInvalidHandle
	}

	var out *entities.Account

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		if err := tx.UpdateProfile(ctx, account, &storage.UpdateProfileParams{
			Handle:      p.Handle,
			DisplayName: p.DisplayName,
			Bio:         p.Bio,
			AvatarURL:   p.AvatarURL,
			IsPrivate:   p.IsPrivate,
		}); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return service.ErrHandleTaken
			}
			return wrapNotFound(err, "failed to update profile")
		}

		a, err := tx.GetAccount(ctx, account)
		if err != nil {
			return wrapNotFound(err, "failed to get account")
		}

		out = a
		return nil
	}); err != nil {
		return nil, err
	}

	return out, nil
}

func (s srv) GetProfile(ctx context.Context, viewer uint64, handle string) (*entities.Profile, error) {
	a, err := s.s.GetAccountByHandle(ctx, handle)
	if err != nil {
		return nil, wrapNotFound(err, "failed to get account")
	}

	ok, err := canViewAccount(ctx, s.s, viewer, a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, service.ErrPrivacyDenied
	}

	posts, err := s.s.CountPosts(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	followers, following, err := s.s.CountFollows(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count follows: %w", err)
	}

	recent, err := s.s.ListPosts(ctx, a.ID, RecentPostsCount, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent posts: %w", err)
	}

	return &entities.Profile{
		Account:        *a,
		PostsCount:     posts,
		FollowersCount: followers,
		FollowingCount: following,
		RecentPosts:    recent,
	}, nil
}

func (s srv) GetAccountByHandle(ctx context.Context, handle string) (*entities.Account, error) {
	a, err := s.s.GetAccountByHandle(ctx, handle)
	if err != nil {
		return nil, wrapNotFound(err, "failed to get account")
	}

	return a, nil
}

// wrapNotFound converts storage.ErrNotFound into service.ErrNotFound and adds context to other errors.
func wrapNotFound(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return service.ErrNotFound
	}

	return fmt.Errorf("%s: %w", msg, err)
}

// observe counts action's result and returns err as is.
func observe(action string, err error) error {
	actionsTotal.WithLabelValues(action, resultOf(err)).Inc()

	if err != nil && resultOf(err) == "error" {
		log.WithField("action", action).WithError(err).Error("action failed")
	}

	return err
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, service.ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, service.ErrNotFound):
		return "not_found"
	case errors.Is(err, service.ErrConflict):
		return "conflict"
	case errors.Is(err, service.ErrForbidden):
		return "forbidden"
	case errors.Is(err, service.ErrPrivacyDenied):
		return "denied"
	default:
		return "error"
	}
}
