// Package entities contains main entities of service.
package entities

import (
	"time"
)

// Account is a registered user together with its public profile.
// IsPrivate is the only privacy flag of the account.
type Account struct {
	ID          uint64
	Handle      string
	DisplayName string
	Bio         string
	AvatarURL   string
	IsPrivate   bool
	CreatedAt   time.Time
}

// Profile is an account with its social counters and a preview of the latest live posts.
type Profile struct {
	Account
	PostsCount     uint64
	FollowersCount uint64
	FollowingCount uint64
	RecentPosts    []*Post
}

// FollowEdge is a directed relationship from follower to following.
type FollowEdge struct {
	ID          uint64
	FollowerID  uint64
	FollowingID uint64
	CreatedAt   time.Time
}

// Post ...
type Post struct {
	ID        uint64
	OwnerID   uint64
	MediaURL  string
	Caption   string
	Tags      []uint64
	CreatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted returns true if post was tombstoned.
func (p Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Comment is a top-level comment of a post when ParentID is nil, otherwise it is a reply.
type Comment struct {
	ID        uint64
	PostID    uint64
	AuthorID  uint64
	ParentID  *uint64
	Text      string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted returns true if comment was tombstoned.
func (c Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// IsReply ...
func (c Comment) IsReply() bool {
	return c.ParentID != nil
}

// SubjectType is a type of liked entity.
type SubjectType string

const (
	// PostSubject ...
	PostSubject SubjectType = "post"
	// CommentSubject ...
	CommentSubject SubjectType = "comment"
)

// Valid ...
func (t SubjectType) Valid() bool {
	return t == PostSubject || t == CommentSubject
}

// Subject is a likeable entity reference.
type Subject struct {
	Type SubjectType
	ID   uint64
}

// Like is a membership record of account in subject's likes.
type Like struct {
	ID        uint64
	Subject   Subject
	AccountID uint64
	CreatedAt time.Time
}

// NotificationCategory ...
type NotificationCategory string

const (
	// FollowNotification ...
	FollowNotification NotificationCategory = "follow"
	// LikeNotification ...
	LikeNotification NotificationCategory = "like"
	// CommentNotification ...
	CommentNotification NotificationCategory = "comment"
	// ReplyNotification ...
	ReplyNotification NotificationCategory = "reply"
)

// Notification is a record in recipient's notifications log.
// SourceID is an id of follow edge, like or comment which produced the notification.
type Notification struct {
	ID          uint64
	RecipientID uint64
	ActorID     uint64
	Category    NotificationCategory
	SourceID    uint64
	Description string
	CreatedAt   time.Time
}
