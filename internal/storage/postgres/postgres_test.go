//+build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/storage"
	"github.com/Decentr-net/agora/internal/storage/postgres/pgtest"
)

var (
	db  *sql.DB
	ctx = context.Background()
	s   storage.Storage
)

func TestMain(m *testing.M) {
	var shutdown func()
	db, shutdown = pgtest.Setup(ctx)

	s = New(db)

	code := m.Run()
	shutdown()
	os.Exit(code)
}

func cleanup(t *testing.T) {
	pgtest.Cleanup(t, db)
}

func createAccount(t *testing.T, id uint64, handle string, private bool) {
	require.NoError(t, s.CreateAccount(ctx, &storage.CreateAccountParams{
		ID:             id,
		Handle:         handle,
		CredentialHash: "hash",
		IsPrivate:      private,
	}))
}

func TestPg_Account(t *testing.T) {
	defer cleanup(t)

	createAccount(t, 1, "alice", false)

	require.True(t, errors.Is(s.CreateAccount(ctx, &storage.CreateAccountParams{ID: 2, Handle: "alice"}), storage.ErrAlreadyExists))

	a, err := s.GetAccountByHandle(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 1, a.ID)
	require.False(t, a.IsPrivate)

	private, bio := true, "bio"
	require.NoError(t, s.UpdateProfile(ctx, 1, &storage.UpdateProfileParams{IsPrivate: &private, Bio: &bio}))

	a, err = s.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "alice", a.Handle)
	require.Equal(t, "bio", a.Bio)
	require.True(t, a.IsPrivate)

	require.Equal(t, storage.ErrNotFound, s.UpdateProfile(ctx, 2, &storage.UpdateProfileParams{Bio: &bio}))

	createAccount(t, 2, "bob", false)
	handle := "bob"
	require.Equal(t, storage.ErrAlreadyExists, s.UpdateProfile(ctx, 1, &storage.UpdateProfileParams{Handle: &handle}))

	_, err = s.GetAccount(ctx, 3)
	require.Equal(t, storage.ErrNotFound, err)
}

func TestPg_Follow(t *testing.T) {
	defer cleanup(t)

	createAccount(t, 1, "alice", false)
	createAccount(t, 2, "bob", false)
	createAccount(t, 3, "carol", false)

	require.NoError(t, s.CreateFollow(ctx, &entities.FollowEdge{ID: 10, FollowerID: 1, FollowingID: 2}))
	require.NoError(t, s.CreateFollow(ctx, &entities.FollowEdge{ID: 11, FollowerID: 3, FollowingID: 2}))
	require.NoError(t, s.CreateFollow(ctx, &entities.FollowEdge{ID: 12, FollowerID: 2, FollowingID: 1}))
	require.Equal(t, storage.ErrAlreadyExists, s.CreateFollow(ctx, &entities.FollowEdge{ID: 13, FollowerID: 1, FollowingID: 2}))
	require.Equal(t, storage.ErrNotFound, s.CreateFollow(ctx, &entities.FollowEdge{ID: 14, FollowerID: 1, FollowingID: 42}))

	e, err := s.GetFollow(ctx, 1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 10, e.ID)

	_, err = s.GetFollow(ctx, 1, 3)
	require.Equal(t, storage.ErrNotFound, err)

	followers, err := s.ListFollowers(ctx, 2, 10, 0)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.EqualValues(t, 3, followers[0].ID)
	assert.EqualValues(t, 1, followers[1].ID)

	followers, err = s.ListFollowers(ctx, 2, 1, 1)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.EqualValues(t, 1, followers[0].ID)

	following, err := s.ListFollowing(ctx, 2, 10, 0)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.EqualValues(t, 1, following[0].ID)

	fs, fg, err := s.CountFollows(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fs)
	assert.EqualValues(t, 1, fg)

	id, err := s.DeleteFollow(ctx, 1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 10, id)

	_, err = s.DeleteFollow(ctx, 1, 2)
	require.Equal(t, storage.ErrNotFound, err)
}

func TestPg_CreateFollow_Concurrent(t *testing.T) {
	defer cleanup(t)

	createAccount(t, 1, "alice", false)
	createAccount(t, 2, "bob", false)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()

			err := s.InTx(ctx, func(s storage.Storage) error {
				return s.CreateFollow(ctx, &entities.FollowEdge{ID: id, FollowerID: 1, FollowingID: 2})
			})

			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}(uint64(100 + i))
	}
	wg.Wait()

	var created int
	for _, err := range results {
		if err == nil {
			created++
			continue
		}
		require.Equal(t, storage.ErrAlreadyExists, err)
	}
	require.Equal(t, 1, created)

	fs, _, err := s.CountFollows(ctx, 2)
	require.NoError(t, err)
	require.EqualValues(t, 1, fs)
}

func TestPg_InTx(t *testing.T) {
	defer cleanup(t)

	createAccount(t, 1, "alice", false)
	createAccount(t, 2, "bob", false)

	errTest := errors.New("test")
	require.Equal(t, errTest, s.InTx(ctx, func(s storage.Storage) error {
		require.NoError(t, s.CreateFollow(ctx, &entities.FollowEdge{ID: 10, FollowerID: 1, FollowingID: 2}))
		// duplicate does not abort the transaction
		require.Equal(t, storage.ErrAlreadyExists, s.CreateFollow(ctx, &entities.FollowEdge{ID: 11, FollowerID: 1, FollowingID: 2}))

		return s.InTx(ctx, func(s storage.Storage) error {
			_, err := s.GetFollow(ctx, 1, 2)
			require.NoError(t, err)
			return errTest
		})
	}))

	_, err := s.GetFollow(ctx, 1, 2)
	require.Equal(t, storage.ErrNotFound, err)
}

func TestPg_Post(t *testing.T) {
	defer cleanup(t)

	createAccount(t, 1, "alice", false)
	createAccount(t, 2, "bob", false)
	createAccount(t, 3, "carol", false)

	require.NoError(t, s.CreatePost(ctx, &entities.Post{ID: 10, OwnerID: 1, MediaURL: "m1", Caption: "c1", Tags: []uint64{3, 2}}))
	require.NoError(t, s.CreatePost(ctx, &entities.Post{ID: 11, OwnerID: 1, MediaURL: "m2"}))
	require.NoError(t, s.CreatePost(ctx, &entities.Post{ID: 12, OwnerID: 2, MediaURL: "m3", Tags: []uint64{3}}))
	require.Equal(t, storage.ErrNotFound, s.InTx(ctx, func(s storage.Storage) error {
		return s.CreatePost(ctx, &entities.Post{ID: 13, OwnerID: 1, Tags: []uint64{42}})
	}))

	p, err := s.GetPost(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 3}, p.Tags)
	require.Equal(t, "m1", p.MediaURL)
	require.False(t, p.IsDeleted())

	pp, err := s.ListPosts(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, pp, 2)
	assert.EqualValues(t, 11, pp[0].ID)
	assert.Empty(t, pp[0].Tags)
	assert.EqualValues(t, 10, pp[1].ID)

	pp, err = s.ListTaggedPosts(ctx, 3, 10, 0)
	require.NoError(t, err)
	require.Len(t, pp, 2)
	assert.EqualValues(t, 12, pp[0].ID)
	assert.EqualValues(t, 10, pp[1].ID)

	at := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.DeletePost(ctx, 10, at))
	require.Equal(t, storage.ErrNotFound, s.DeletePost(ctx, 10, at))

	p, err = s.GetPost(ctx, 10)
	require.NoError(t, err)
	require.True(t, at.Equal(*p.DeletedAt))

	c, err := s.CountPosts(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, c)

	pp, err = s.ListTaggedPosts(ctx, 3, 10, 0)
	require.NoError(t, err)
	require.Len(t, pp, 1)
}

func TestPg_Like(t *testing.T) {
	defer cleanup(t)

	createAccount(t, 1, "alice", false)
	createAccount(t, 2, "bob", false)

	post := entities.Subject{Type: entities.PostSubject, ID: 10}
	comment := entities.Subject{Type: entities.CommentSubject, ID: 10}

	require.NoError(t, s.CreateLike(ctx, &entities.Like{ID: 100, Subject: post, AccountID: 1}))
	require.NoError(t, s.CreateLike(ctx, &entities.Like{ID: 101, Subject: post, AccountID: 2}))
	require.NoError(t, s.CreateLike(ctx, &entities.Like{ID: 102, Subject: comment, AccountID: 1}))
	require.Equal(t, storage.ErrAlreadyExists, s.CreateLike(ctx, &entities.Like{ID: 103, Subject: post, AccountID: 1}))

	c, err := s.CountLikes(ctx, entities.PostSubject, 10, 11)
	require.NoError(t, err)
	require.Equal(t, map[uint64]uint64{10: 2, 11: 0}, c)

	liked, err := s.GetLiked(ctx, 2, entities.PostSubject, 10, 11)
	require.NoError(t, err)
	require.Equal(t, map[uint64]bool{10: true, 11: false}, liked)

	id, err := s.DeleteLike(ctx, post, 1)
	require.NoError(t, err)
	require.EqualValues(t, 100, id)

	_, err = s.DeleteLike(ctx, post, 1)
	require.Equal(t, storage.ErrNotFound, err)

	c, err = s.CountLikes(ctx, entities.PostSubject, 10)
	require.NoError(t, err)
	require.Equal(t, map[uint64]uint64{10: 1}, c)

	c, err = s.CountLikes(ctx, entities.CommentSubject, 10)
	require.NoError(t, err)
	require.Equal(t, map[uint64]uint64{10: 1}, c)

	c, err = s.CountLikes(ctx, entities.CommentSubject)
	require.NoError(t, err)
	require.Empty(t, c)
}

func TestPg_CreateLike_Concurrent(t *testing.T) {
	defer cleanup(t)

	createAccount(t, 1, "alice", false)

	subject := entities.Subject{Type: entities.PostSubject, ID: 10}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()

			err := s.InTx(ctx, func(s storage.Storage) error {
				return s.CreateLike(ctx, &entities.Like{ID: id, Subject: subject, AccountID: 1})
			})

			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}(uint64(100 + i))
	}
	wg.Wait()

	var created int
	for _, err := range results {
		if err == nil {
			created++
			continue
		}
		require.Equal(t, storage.ErrAlreadyExists, err)
	}
	require.Equal(t, 1, created)

	c, err := s.CountLikes(ctx, entities.PostSubject, 10)
	require.NoError(t, err)
	require.Equal(t, map[uint64]uint64{10: 1}, c)
}

func TestPg_Comment(t *testing.T) {
	defer cleanup(t)

	createAccount(t, 1, "alice", false)
	createAccount(t, 2, "bob", false)
	require.NoError(t, s.CreatePost(ctx, &entities.Post{ID: 10, OwnerID: 1}))

	parent := uint64(20)
	require.NoError(t, s.CreateComment(ctx, &entities.Comment{ID: 20, PostID: 10, AuthorID: 2, Text: "first"}))
	require.NoError(t, s.CreateComment(ctx, &entities.Comment{ID: 21, PostID: 10, AuthorID: 1, Text: "second"}))
	require.NoError(t, s.CreateComment(ctx, &entities.Comment{ID: 22, PostID: 10, AuthorID: 1, ParentID: &parent, Text: "reply"}))
	require.NoError(t, s.CreateComment(ctx, &entities.Comment{ID: 23, PostID: 10, AuthorID: 2, ParentID: &parent, Text: "reply 2"}))
	require.Equal(t, storage.ErrNotFound, s.CreateComment(ctx, &entities.Comment{ID: 24, PostID: 42, AuthorID: 1, Text: "x"}))

	c, err := s.GetComment(ctx, 22)
	require.NoError(t, err)
	require.Equal(t, &parent, c.ParentID)
	require.True(t, c.IsReply())

	cc, err := s.ListComments(ctx, 10, 10, 0)
	require.NoError(t, err)
	require.Len(t, cc, 2)
	assert.EqualValues(t, 21, cc[0].ID)
	assert.EqualValues(t, 20, cc[1].ID)

	replies, err := s.CountReplies(ctx, 20, 21)
	require.NoError(t, err)
	require.Equal(t, map[uint64]uint64{20: 2, 21: 0}, replies)

	comments, err := s.CountComments(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, map[uint64]uint64{10: 4}, comments)

	at := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.DeleteComment(ctx, 20, at))
	require.Equal(t, storage.ErrNotFound, s.DeleteComment(ctx, 20, at))

	c, err = s.GetComment(ctx, 20)
	require.NoError(t, err)
	require.True(t, c.IsDeleted())

	// replies of deleted comment stay listable
	cc, err = s.ListReplies(ctx, 20, 10, 0)
	require.NoError(t, err)
	require.Len(t, cc, 2)
	assert.EqualValues(t, 23, cc[0].ID)

	cc, err = s.ListComments(ctx, 10, 10, 0)
	require.NoError(t, err)
	require.Len(t, cc, 1)
}

func TestPg_Notification(t *testing.T) {
	defer cleanup(t)

	createAccount(t, 1, "alice", false)
	createAccount(t, 2, "bob", false)

	require.NoError(t, s.CreateNotification(ctx, &entities.Notification{
		ID: 30, RecipientID: 1, ActorID: 2, Category: entities.FollowNotification, SourceID: 10, Description: "bob started following you",
	}))
	require.NoError(t, s.CreateNotification(ctx, &entities.Notification{
		ID: 31, RecipientID: 1, ActorID: 2, Category: entities.LikeNotification, SourceID: 11, Description: "bob liked your post",
	}))
	// actor may be unknown
	require.NoError(t, s.CreateNotification(ctx, &entities.Notification{
		ID: 32, RecipientID: 1, ActorID: 42, Category: entities.LikeNotification, SourceID: 12, Description: "Someone liked your post",
	}))
	require.Equal(t, storage.ErrNotFound, s.CreateNotification(ctx, &entities.Notification{
		ID: 33, RecipientID: 42, ActorID: 1, Category: entities.LikeNotification, SourceID: 13, Description: "",
	}))

	ok, err := s.DeleteNotification(ctx, 1, entities.FollowNotification, 11)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.DeleteNotification(ctx, 1, entities.LikeNotification, 11)
	require.NoError(t, err)
	require.True(t, ok)

	nn, err := s.ListNotifications(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, nn, 2)
	assert.EqualValues(t, 32, nn[0].ID)
	assert.EqualValues(t, 30, nn[1].ID)
	assert.Equal(t, entities.FollowNotification, nn[1].Category)
	assert.Equal(t, "bob started following you", nn[1].Description)
}
