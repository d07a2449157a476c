package server

import (
	"github.com/samber/lo"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
)

const defaultTake = 20

// CreateAccountRequest ...
// swagger:model
type CreateAccountRequest struct {
	Handle      string `json:"handle" validate:"required,max=30"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=64"`
	Bio         string `json:"bio" validate:"max=150"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
	IsPrivate   bool   `json:"is_private"`
}

// UpdateProfileRequest contains fields to be changed. Omitted fields are kept.
// swagger:model
type UpdateProfileRequest struct {
	Handle      *string `json:"handle" validate:"omitempty,max=30"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=64"`
	Bio         *string `json:"bio" validate:"omitempty,max=150"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
	IsPrivate   *bool   `json:"is_private"`
}

// CreatePostRequest ...
// swagger:model
type CreatePostRequest struct {
	MediaURL string   `json:"media_url" validate:"required,url"`
	Caption  string   `json:"caption" validate:"max=2200"`
	Tags     []uint64 `json:"tags" validate:"max=20,dive,gt=0"`
}

// CreateCommentRequest creates a reply when ParentID is set.
// swagger:model
type CreateCommentRequest struct {
	Text     string  `json:"text" validate:"required"`
	ParentID *uint64 `json:"parent_id" validate:"omitempty,gt=0"`
}

// Account ...
// swagger:model
type Account struct {
	ID          uint64 `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	IsPrivate   bool   `json:"is_private"`
	CreatedAt   int64  `json:"created_at"`
}

// Profile ...
// swagger:model
type Profile struct {
	Account
	PostsCount     uint64       `json:"posts_count"`
	FollowersCount uint64       `json:"followers_count"`
	FollowingCount uint64       `json:"following_count"`
	RecentPosts    []RecentPost `json:"recent_posts"`
}

// RecentPost is a post preview shown on profile.
// swagger:model
type RecentPost struct {
	ID       uint64 `json:"id"`
	MediaURL string `json:"media_url"`
}

// FollowEdge ...
// swagger:model
type FollowEdge struct {
	ID          uint64 `json:"id"`
	FollowerID  uint64 `json:"follower_id"`
	FollowingID uint64 `json:"following_id"`
	CreatedAt   int64  `json:"created_at"`
}

// Post ...
// swagger:model
type Post struct {
	ID            uint64   `json:"id"`
	OwnerID       uint64   `json:"owner_id"`
	MediaURL      string   `json:"media_url"`
	Caption       string   `json:"caption"`
	Tags          []uint64 `json:"tags"`
	LikesCount    uint64   `json:"likes_count"`
	CommentsCount uint64   `json:"comments_count"`
	Liked         bool     `json:"liked"`
	CreatedAt     int64    `json:"created_at"`
}

// Comment ...
// swagger:model
type Comment struct {
	ID           uint64  `json:"id"`
	PostID       uint64  `json:"post_id"`
	AuthorID     uint64  `json:"author_id"`
	ParentID     *uint64 `json:"parent_id,omitempty"`
	Text         string  `json:"text"`
	LikesCount   uint64  `json:"likes_count"`
	RepliesCount uint64  `json:"replies_count"`
	Liked        bool    `json:"liked"`
	CreatedAt    int64   `json:"created_at"`
}

// Notification ...
// swagger:model
type Notification struct {
	ID          uint64 `json:"id"`
	ActorID     uint64 `json:"actor_id"`
	Category    string `json:"category"`
	SourceID    uint64 `json:"source_id"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
}

func toAPIAccount(a *entities.Account) Account {
	return Account{
		ID:          a.ID,
		Handle:      a.Handle,
		DisplayName: a.DisplayName,
		Bio:         a.Bio,
		AvatarURL:   a.AvatarURL,
		IsPrivate:   a.IsPrivate,
		CreatedAt:   a.CreatedAt.Unix(),
	}
}

func toAPIAccounts(aa []*entities.Account) []Account {
	return lo.Map(aa, func(a *entities.Account, _ int) Account { return toAPIAccount(a) })
}

func toAPIProfile(p *entities.Profile) Profile {
	return Profile{
		Account:        toAPIAccount(&p.Account),
		PostsCount:     p.PostsCount,
		FollowersCount: p.FollowersCount,
		FollowingCount: p.FollowingCount,
		RecentPosts: lo.Map(p.RecentPosts, func(v *entities.Post, _ int) RecentPost {
			return RecentPost{ID: v.ID, MediaURL: v.MediaURL}
		}),
	}
}

func toAPIFollowEdge(e *entities.FollowEdge) FollowEdge {
	return FollowEdge{
		ID:          e.ID,
		FollowerID:  e.FollowerID,
		FollowingID: e.FollowingID,
		CreatedAt:   e.CreatedAt.Unix(),
	}
}

func toAPIPost(p *service.Post) Post {
	tags := p.Tags
	if tags == nil {
		tags = []uint64{}
	}

	return Post{
		ID:            p.ID,
		OwnerID:       p.OwnerID,
		MediaURL:      p.MediaURL,
		Caption:       p.Caption,
		Tags:          tags,
		LikesCount:    p.Likes,
		CommentsCount: p.Comments,
		Liked:         p.Liked,
		CreatedAt:     p.CreatedAt.Unix(),
	}
}

func toAPIPosts(pp []*service.Post) []Post {
	return lo.Map(pp, func(p *service.Post, _ int) Post { return toAPIPost(p) })
}

func toAPIComment(c *service.Comment) Comment {
	return Comment{
		ID:           c.ID,
		PostID:       c.PostID,
		AuthorID:     c.AuthorID,
		ParentID:     c.ParentID,
		Text:         c.Text,
		LikesCount:   c.Likes,
		RepliesCount: c.Replies,
		Liked:        c.Liked,
		CreatedAt:    c.CreatedAt.Unix(),
	}
}

func toAPIComments(cc []*service.Comment) []Comment {
	return lo.Map(cc, func(c *service.Comment, _ int) Comment { return toAPIComment(c) })
}

func toAPINotifications(nn []*entities.Notification) []Notification {
	return lo.Map(nn, func(n *entities.Notification, _ int) Notification {
		return Notification{
			ID:          n.ID,
			ActorID:     n.ActorID,
			Category:    string(n.Category),
			SourceID:    n.SourceID,
			Description: n.Description,
			CreatedAt:   n.CreatedAt.Unix(),
		}
	})
}
