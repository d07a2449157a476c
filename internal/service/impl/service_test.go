package impl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
	storageinterface "github.com/Decentr-net/agora/internal/storage"
	storage "github.com/Decentr-net/agora/internal/storage/mock"
)

const (
	alice uint64 = 1
	bob   uint64 = 2
	carol uint64 = 3
)

var timestamp = time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

type seqIDs struct {
	next uint64
}

func (g *seqIDs) Generate() uint64 {
	g.next++
	return g.next
}

func newTestService(t *testing.T) (srv, *storage.MockStorage) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	s := storage.NewMockStorage(ctrl)

	return srv{
		s:   s,
		ids: &seqIDs{next: 100},
		p:   bluemonday.StrictPolicy(),
		now: func() time.Time { return timestamp },
	}, s
}

func expectTx(s *storage.MockStorage) {
	s.EXPECT().InTx(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, f func(s storageinterface.Storage) error) error {
		return f(s)
	})
}

func expectNotification(t *testing.T, s *storage.MockStorage, expected entities.Notification) {
	s.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n *entities.Notification) error {
		assert.Equal(t, expected.RecipientID, n.RecipientID)
		assert.Equal(t, expected.ActorID, n.ActorID)
		assert.Equal(t, expected.Category, n.Category)
		assert.Equal(t, expected.SourceID, n.SourceID)
		assert.Equal(t, expected.Description, n.Description)
		return nil
	})
}

func TestSrv_CreateAccount(t *testing.T) {
	tt := []struct {
		name   string
		handle string
		dbErr  error
		err    error
	}{
		{
			name:   "success",
			handle: "alice_1.x",
		},
		{
			name:   "invalid handle",
			handle: "alice!",
			err:    service.ErrInvalidHandle,
		},
		{
			name:   "empty handle",
			handle: "",
			err:    service.ErrInvalidHandle,
		},
		{
			name:   "taken",
			handle: "alice",
			dbErr:  storageinterface.ErrAlreadyExists,
			err:    service.ErrHandleTaken,
		},
		{
			name:   "storage failure",
			handle: "alice",
			dbErr:  context.Canceled,
			err:    context.Canceled,
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			srv, s := newTestService(t)

			if tc.err != service.ErrInvalidHandle {
				s.EXPECT().CreateAccount(gomock.Any(), &storageinterface.CreateAccountParams{
					ID:             101,
					Handle:         tc.handle,
					CredentialHash: "hash",
					IsPrivate:      true,
				}).Return(tc.dbErr)
			}

			a, err := srv.CreateAccount(context.Background(), &service.CreateAccountParams{
				Handle:         tc.handle,
				CredentialHash: "hash",
				IsPrivate:      true,
			})
			if tc.err != nil {
				require.True(t, errors.Is(err, tc.err), err)
				require.Nil(t, a)
				return
			}

			require.NoError(t, err)
			require.EqualValues(t, 101, a.ID)
			require.Equal(t, tc.handle, a.Handle)
			require.True(t, a.IsPrivate)
		})
	}
}

func TestSrv_UpdateProfile(t *testing.T) {
	srv, s := newTestService(t)

	private := true
	p := &storageinterface.UpdateProfileParams{IsPrivate: &private}

	expectTx(s)
	s.EXPECT().UpdateProfile(gomock.Any(), alice, p).Return(nil)
	s.EXPECT().GetAccount(gomock.Any(), alice).Return(&entities.Account{ID: alice, Handle: "alice", IsPrivate: true}, nil)

	a, err := srv.UpdateProfile(context.Background(), alice, &service.UpdateProfileParams{IsPrivate: &private})
	require.NoError(t, err)
	require.True(t, a.IsPrivate)

	handle := "bob"
	expectTx(s)
	s.EXPECT().UpdateProfile(gomock.Any(), alice, gomock.Any()).Return(storageinterface.ErrAlreadyExists)

	_, err = srv.UpdateProfile(context.Background(), alice, &service.UpdateProfileParams{Handle: &handle})
	require.True(t, errors.Is(err, service.ErrHandleTaken))

	handle = "no spaces"
	_, err = srv.UpdateProfile(context.Background(), alice, &service.UpdateProfileParams{Handle: &handle})
	require.True(t, errors.Is(err, service.ErrInvalidHandle))
}

func TestSrv_GetProfile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv, s := newTestService(t)

		s.EXPECT().GetAccountByHandle(gomock.Any(), "bob").Return(&entities.Account{ID: bob, Handle: "bob"}, nil)
		s.EXPECT().CountPosts(gomock.Any(), bob).Return(uint64(3), nil)
		s.EXPECT().CountFollows(gomock.Any(), bob).Return(uint64(2), uint64(1), nil)
		s.EXPECT().ListPosts(gomock.Any(), bob, uint64(RecentPostsCount), uint64(0)).
			Return([]*entities.Post{{ID: 11, OwnerID: bob, MediaURL: "https://cdn/11.jpg"}}, nil)

		p, err := srv.GetProfile(context.Background(), alice, "bob")
		require.NoError(t, err)
		require.Equal(t, &entities.Profile{
			Account:        entities.Account{ID: bob, Handle: "bob"},
			PostsCount:     3,
			FollowersCount: 2,
			FollowingCount: 1,
			RecentPosts:    []*entities.Post{{ID: 11, OwnerID: bob, MediaURL: "https://cdn/11.jpg"}},
		}, p)
	})

	t.Run("private but following", func(t *testing.T) {
		srv, s := newTestService(t)

		s.EXPECT().GetAccountByHandle(gomock.Any(), "bob").Return(&entities.Account{ID: bob, Handle: "bob", IsPrivate: true}, nil)
		s.EXPECT().GetFollow(gomock.Any(), alice, bob).Return(&entities.FollowEdge{ID: 5, FollowerID: alice, FollowingID: bob}, nil)
		s.EXPECT().CountPosts(gomock.Any(), bob).Return(uint64(0), nil)
		s.EXPECT().CountFollows(gomock.Any(), bob).Return(uint64(1), uint64(0), nil)
		s.EXPECT().ListPosts(gomock.Any(), bob, uint64(RecentPostsCount), uint64(0)).Return(nil, nil)

		p, err := srv.GetProfile(context.Background(), alice, "bob")
		require.NoError(t, err)
		require.Empty(t, p.RecentPosts)
	})

	t.Run("private", func(t *testing.T) {
		srv, s := newTestService(t)

		s.EXPECT().GetAccountByHandle(gomock.Any(), "bob").Return(&entities.Account{ID: bob, Handle: "bob", IsPrivate: true}, nil)
		s.EXPECT().GetFollow(gomock.Any(), alice, bob).Return(nil, storageinterface.ErrNotFound)

		_, err := srv.GetProfile(context.Background(), alice, "bob")
		require.Equal(t, service.ErrPrivacyDenied, err)
	})

	t.Run("not found", func(t *testing.T) {
		srv, s := newTestService(t)

		s.EXPECT().GetAccountByHandle(gomock.Any(), "bob").Return(nil, storageinterface.ErrNotFound)

		_, err := srv.GetProfile(context.Background(), alice, "bob")
		require.Equal(t, service.ErrNotFound, err)
	})
}

func TestSrv_CanView(t *testing.T) {
	tt := []struct {
		name    string
		viewer  uint64
		account *entities.Account
		dbErr   error
		follows bool

		ok  bool
		err error
	}{
		{
			name:   "self",
			viewer: alice,
			ok:     true,
		},
		{
			name:   "not found",
			viewer: bob,
			dbErr:  storageinterface.ErrNotFound,
			err:    service.ErrNotFound,
		},
		{
			name:    "public",
			viewer:  bob,
			account: &entities.Account{ID: alice},
			ok:      true,
		},
		{
			name:    "private not following",
			viewer:  bob,
			account: &entities.Account{ID: alice, IsPrivate: true},
			ok:      false,
		},
		{
			name:    "private following",
			viewer:  bob,
			account: &entities.Account{ID: alice, IsPrivate: true},
			follows: true,
			ok:      true,
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			srv, s := newTestService(t)

			if tc.viewer != alice {
				s.EXPECT().GetAccount(gomock.Any(), alice).Return(tc.account, tc.dbErr)
			}

			if tc.account != nil && tc.account.IsPrivate {
				if tc.follows {
					s.EXPECT().GetFollow(gomock.Any(), tc.viewer, alice).Return(&entities.FollowEdge{ID: 5}, nil)
				} else {
					s.EXPECT().GetFollow(gomock.Any(), tc.viewer, alice).Return(nil, storageinterface.ErrNotFound)
				}
			}

			ok, err := srv.CanView(context.Background(), tc.viewer, alice)
			require.Equal(t, tc.err, err)
			require.Equal(t, tc.ok, ok)
		})
	}
}

func TestSrv_ListNotifications(t *testing.T) {
	srv, s := newTestService(t)

	_, err := srv.ListNotifications(context.Background(), alice, service.Page{Take: 101, Page: 1})
	require.Equal(t, service.ErrInvalidPage, err)

	_, err = srv.ListNotifications(context.Background(), alice, service.Page{Take: 10, Page: 0})
	require.Equal(t, service.ErrInvalidPage, err)

	nn := []*entities.Notification{{ID: 2}, {ID: 1}}
	s.EXPECT().ListNotifications(gomock.Any(), alice, uint64(10), uint64(20)).Return(nn, nil)

	out, err := srv.ListNotifications(context.Background(), alice, service.Page{Take: 10, Page: 3})
	require.NoError(t, err)
	require.Equal(t, nn, out)
}

func TestSrv_notify(t *testing.T) {
	t.Run("self", func(t *testing.T) {
		srv, _ := newTestService(t)

		require.NoError(t, srv.notify(context.Background(), srv.s, notice{recipient: alice, actor: alice}))
	})

	t.Run("unknown actor", func(t *testing.T) {
		srv, s := newTestService(t)

		s.EXPECT().GetAccount(gomock.Any(), bob).Return(nil, storageinterface.ErrNotFound)
		expectNotification(t, s, entities.Notification{
			RecipientID: alice,
			ActorID:     bob,
			Category:    entities.FollowNotification,
			SourceID:    7,
			Description: "Someone started following you",
		})

		require.NoError(t, srv.notify(context.Background(), srv.s, notice{
			recipient: alice,
			actor:     bob,
			category:  entities.FollowNotification,
			source:    7,
			text:      followText,
		}))
	})

	t.Run("storage failure", func(t *testing.T) {
		srv, s := newTestService(t)

		s.EXPECT().GetAccount(gomock.Any(), bob).Return(nil, context.Canceled)

		err := srv.notify(context.Background(), srv.s, notice{recipient: alice, actor: bob, text: followText})
		require.True(t, errors.Is(err, context.Canceled))
	})
}

func TestResultOf(t *testing.T) {
	tt := []struct {
		err      error
		expected string
	}{
		{nil, "ok"},
		{service.ErrInvalidPage, "invalid"},
		{service.ErrNotFound, "not_found"},
		{service.ErrAlreadyFollowing, "conflict"},
		{service.ErrForbidden, "forbidden"},
		{service.ErrPrivacyDenied, "denied"},
		{context.Canceled, "error"},
	}

	for _, tc := range tt {
		assert.Equal(t, tc.expected, resultOf(tc.err))
	}
}
