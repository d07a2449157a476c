package impl

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
	storageinterface "github.com/Decentr-net/agora/internal/storage"
)

func TestSrv_Follow(t *testing.T) {
	t.Run("self", func(t *testing.T) {
		srv, _ := newTestService(t)

		_, err := srv.Follow(context.Background(), alice, alice)
		require.Equal(t, service.ErrCannotFollowSelf, err)
		require.True(t, errors.Is(err, service.ErrConflict))
	})

	t.Run("target not found", func(t *testing.T) {
		srv, s := newTestService(t)

		expectTx(s)
		s.EXPECT().GetAccount(gomock.Any(), bob).Return(nil, storageinterface.ErrNotFound)

		_, err := srv.Follow(context.Background(), alice, bob)
		require.Equal(t, service.ErrNotFound, err)
	})

	t.Run("already following", func(t *testing.T) {
		srv, s := newTestService(t)

		expectTx(s)
		s.EXPECT().GetAccount(gomock.Any(), bob).Return(&entities.Account{ID: bob}, nil)
		s.EXPECT().GetFollow(gomock.Any(), alice, bob).Return(&entities.FollowEdge{ID: 5}, nil)

		_, err := srv.Follow(context.Background(), alice, bob)
		require.Equal(t, service.ErrAlreadyFollowing, err)
	})

	t.Run("concurrent follow", func(t *testing.T) {
		srv, s := newTestService(t)

		expectTx(s)
		s.EXPECT().GetAccount(gomock.Any(), bob).Return(&entities.Account{ID: bob}, nil)
		s.EXPECT().GetFollow(gomock.Any(), alice, bob).Return(nil, storageinterface.ErrNotFound)
		s.EXPECT().CreateFollow(gomock.Any(), gomock.Any()).Return(storageinterface.ErrAlreadyExists)

		_, err := srv.Follow(context.Background(), alice, bob)
		require.Equal(t, service.ErrAlreadyFollowing, err)
	})

	t.Run("success", func(t *testing.T) {
		srv, s := newTestService(t)

		expectTx(s)
		s.EXPECT().GetAccount(gomock.Any(), bob).Return(&entities.Account{ID: bob, Handle: "bob"}, nil)
		s.EXPECT().GetFollow(gomock.Any(), alice, bob).Return(nil, storageinterface.ErrNotFound)
		s.EXPECT().CreateFollow(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *entities.FollowEdge) error {
			require.EqualValues(t, 101, e.ID)
			require.Equal(t, alice, e.FollowerID)
			require.Equal(t, bob, e.FollowingID)
			return nil
		})
		s.EXPECT().GetAccount(gomock.Any(), alice).Return(&entities.Account{ID: alice, Handle: "alice"}, nil)
		expectNotification(t, s, entities.Notification{
			RecipientID: bob,
			ActorID:     alice,
			Category:    entities.FollowNotification,
			SourceID:    101,
			Description: "alice started following you",
		})

		e, err := srv.Follow(context.Background(), alice, bob)
		require.NoError(t, err)
		require.EqualValues(t, 101, e.ID)
	})

	t.Run("notification failure", func(t *testing.T) {
		srv, s := newTestService(t)

		expectTx(s)
		s.EXPECT().GetAccount(gomock.Any(), bob).Return(&entities.Account{ID: bob}, nil)
		s.EXPECT().GetFollow(gomock.Any(), alice, bob).Return(nil, storageinterface.ErrNotFound)
		s.EXPECT().CreateFollow(gomock.Any(), gomock.Any()).Return(nil)
		s.EXPECT().GetAccount(gomock.Any(), alice).Return(&entities.Account{ID: alice, Handle: "alice"}, nil)
		s.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).Return(context.Canceled)

		e, err := srv.Follow(context.Background(), alice, bob)
		require.True(t, errors.Is(err, context.Canceled))
		require.Nil(t, e)
	})
}

func TestSrv_Unfollow(t *testing.T) {
	t.Run("not following", func(t *testing.T) {
		srv, s := newTestService(t)

		expectTx(s)
		s.EXPECT().GetAccount(gomock.Any(), bob).Return(&entities.Account{ID: bob}, nil)
		s.EXPECT().DeleteFollow(gomock.Any(), alice, bob).Return(uint64(0), storageinterface.ErrNotFound)

		require.Equal(t, service.ErrNotFollowing, srv.Unfollow(context.Background(), alice, bob))
	})

	t.Run("success", func(t *testing.T) {
		srv, s := newTestService(t)

		expectTx(s)
		s.EXPECT().GetAccount(gomock.Any(), bob).Return(&entities.Account{ID: bob}, nil)
		s.EXPECT().DeleteFollow(gomock.Any(), alice, bob).Return(uint64(5), nil)
		s.EXPECT().DeleteNotification(gomock.Any(), bob, entities.FollowNotification, uint64(5)).Return(true, nil)

		require.NoError(t, srv.Unfollow(context.Background(), alice, bob))
	})

	t.Run("notification is already gone", func(t *testing.T) {
		srv, s := newTestService(t)

		expectTx(s)
		s.EXPECT().GetAccount(gomock.Any(), bob).Return(&entities.Account{ID: bob}, nil)
		s.EXPECT().DeleteFollow(gomock.Any(), alice, bob).Return(uint64(5), nil)
		s.EXPECT().DeleteNotification(gomock.Any(), bob, entities.FollowNotification, uint64(5)).Return(false, nil)

		require.NoError(t, srv.Unfollow(context.Background(), alice, bob))
	})
}

func TestSrv_ListFollowers(t *testing.T) {
	t.Run("private", func(t *testing.T) {
		srv, s := newTestService(t)

		s.EXPECT().GetAccount(gomock.Any(), bob).Return(&entities.Account{ID: bob, IsPrivate: true}, nil)
		s.EXPECT().GetFollow(gomock.Any(), alice, bob).Return(nil, storageinterface.ErrNotFound)

		_, err := srv.ListFollowers(context.Background(), alice, bob, service.Page{Take: 10, Page: 1})
		require.Equal(t, service.ErrPrivacyDenied, err)
	})

	t.Run("success", func(t *testing.T) {
		srv, s := newTestService(t)

		aa := []*entities.Account{{ID: carol}, {ID: alice}}
		s.EXPECT().GetAccount(gomock.Any(), bob).Return(&entities.Account{ID: bob}, nil)
		s.EXPECT().ListFollowers(gomock.Any(), bob, uint64(10), uint64(10)).Return(aa, nil)

		out, err := srv.ListFollowers(context.Background(), alice, bob, service.Page{Take: 10, Page: 2})
		require.NoError(t, err)
		require.Equal(t, aa, out)
	})
}

func TestSrv_ListFollowing(t *testing.T) {
	srv, s := newTestService(t)

	aa := []*entities.Account{{ID: bob}}
	s.EXPECT().ListFollowing(gomock.Any(), alice, uint64(5), uint64(0)).Return(aa, nil)

	out, err := srv.ListFollowing(context.Background(), alice, alice, service.Page{Take: 5, Page: 1})
	require.NoError(t, err)
	require.Equal(t, aa, out)
}
