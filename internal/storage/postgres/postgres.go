// Package postgres is implementation of storage interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/snowflake"
	"github.com/Decentr-net/agora/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "postgres")

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type pg struct {
	ext sqlx.ExtContext
}

type accountDTO struct {
	ID          uint64 `db:"id"`
	Handle      string `db:"handle"`
	DisplayName string `db:"display_name"`
	Bio         string `db:"bio"`
	AvatarURL   string `db:"avatar_url"`
	IsPrivate   bool   `db:"is_private"`
}

type followDTO struct {
	ID          uint64 `db:"id"`
	FollowerID  uint64 `db:"follower_id"`
	FollowingID uint64 `db:"following_id"`
}

type postDTO struct {
	ID        uint64     `db:"id"`
	OwnerID   uint64     `db:"owner_id"`
	MediaURL  string     `db:"media_url"`
	Caption   string     `db:"caption"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type tagDTO struct {
	PostID    uint64 `db:"post_id"`
	AccountID uint64 `db:"account_id"`
}

type commentDTO struct {
	ID        uint64     `db:"id"`
	PostID    uint64     `db:"post_id"`
	AuthorID  uint64     `db:"author_id"`
	ParentID  *uint64    `db:"parent_id"`
	Text      string     `db:"text"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type notificationDTO struct {
	ID          uint64 `db:"id"`
	RecipientID uint64 `db:"recipient_id"`
	ActorID     uint64 `db:"actor_id"`
	Category    string `db:"category"`
	SourceID    uint64 `db:"source_id"`
	Description string `db:"description"`
}

type countDTO struct {
	ID    uint64 `db:"id"`
	Count uint64 `db:"count"`
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
	}
}

func (s pg) InTx(ctx context.Context, f func(s storage.Storage) error) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		// already in tx
		return f(s)
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to create tx: %w", err)
	}

	if err := f(pg{ext: tx}); err != nil {
		if err := tx.Rollback(); err != nil {
			log.WithError(err).Error("failed to rollback tx")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	return nil
}

func (s pg) CreateAccount(ctx context.Context, p *storage.CreateAccountParams) error {
	if _, err := sqlx.NamedExecContext(ctx, s.ext, `
			INSERT INTO account(id, handle, credential_hash, display_name, bio, avatar_url, is_private)
			VALUES(:id, :handle, :credential_hash, :display_name, :bio, :avatar_url, :is_private)
		`, struct {
		accountDTO
		CredentialHash string `db:"credential_hash"`
	}{
		accountDTO: accountDTO{
			ID:          p.ID,
			Handle:      p.Handle,
			DisplayName: p.DisplayName,
			Bio:         p.Bio,
			AvatarURL:   p.AvatarURL,
			IsPrivate:   p.IsPrivate,
		},
		CredentialHash: p.CredentialHash,
	}); err != nil {
		if isPQError(err, uniqueViolation) {
			return storage.ErrAlreadyExists
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetAccount(ctx context.Context, id uint64) (*entities.Account, error) {
	return s.getAccount(ctx, `
			SELECT id, handle, display_name, bio, avatar_url, is_private FROM account
			WHERE id = $1
		`, id)
}

func (s pg) GetAccountByHandle(ctx context.Context, handle string) (*entities.Account, error) {
	return s.getAccount(ctx, `
			SELECT id, handle, display_name, bio, avatar_url, is_private FROM account
			WHERE handle = $1
		`, handle)
}

func (s pg) getAccount(ctx context.Context, query string, arg interface{}) (*entities.Account, error) {
	var a accountDTO

	if err := sqlx.GetContext(ctx, s.ext, &a, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toAccount(a), nil
}

func (s pg) UpdateProfile(ctx context.Context, id uint64, p *storage.UpdateProfileParams) error {
	res, err := s.ext.ExecContext(ctx, `
			UPDATE account SET
				handle = COALESCE($2, handle),
				display_name = COALESCE($3, display_name),
				bio = COALESCE($4, bio),
				avatar_url = COALESCE($5, avatar_url),
				is_private = COALESCE($6, is_private)
			WHERE id = $1
		`, id, p.Handle, p.DisplayName, p.Bio, p.AvatarURL, p.IsPrivate,
	)
	if err != nil {
		if isPQError(err, uniqueViolation) {
			return storage.ErrAlreadyExists
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) CreateFollow(ctx context.Context, e *entities.FollowEdge) error {
	res, err := s.ext.ExecContext(ctx, `
			INSERT INTO follow(id, follower_id, following_id) VALUES($1, $2, $3)
			ON CONFLICT(follower_id, following_id) DO NOTHING
		`, e.ID, e.FollowerID, e.FollowingID,
	)
	if err != nil {
		if isPQError(err, foreignKeyViolation) {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrAlreadyExists
	}

	return nil
}

func (s pg) GetFollow(ctx context.Context, follower, following uint64) (*entities.FollowEdge, error) {
	var f followDTO

	if err := sqlx.GetContext(ctx, s.ext, &f, `
			SELECT id, follower_id, following_id FROM follow
			WHERE follower_id = $1 AND following_id = $2
		`, follower, following,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return &entities.FollowEdge{
		ID:          f.ID,
		FollowerID:  f.FollowerID,
		FollowingID: f.FollowingID,
		CreatedAt:   snowflake.TimestampOf(f.ID),
	}, nil
}

func (s pg) DeleteFollow(ctx context.Context, follower, following uint64) (uint64, error) {
	var id uint64

	if err := sqlx.GetContext(ctx, s.ext, &id, `
			DELETE FROM follow WHERE follower_id = $1 AND following_id = $2
			RETURNING id
		`, follower, following,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}

		return 0, fmt.Errorf("failed to exec: %w", err)
	}

	return id, nil
}

func (s pg) ListFollowers(ctx context.Context, account uint64, limit, offset uint64) ([]*entities.Account, error) {
	return s.listAccounts(ctx, `
			SELECT a.id, a.handle, a.display_name, a.bio, a.avatar_url, a.is_private
			FROM follow f
			INNER JOIN account a ON a.id = f.follower_id
			WHERE f.following_id = $1
			ORDER BY f.id DESC
			LIMIT $2 OFFSET $3
		`, account, limit, offset)
}

func (s pg) ListFollowing(ctx context.Context, account uint64, limit, offset uint64) ([]*entities.Account, error) {
	return s.listAccounts(ctx, `
			SELECT a.id, a.handle, a.display_name, a.bio, a.avatar_url, a.is_private
			FROM follow f
			INNER JOIN account a ON a.id = f.following_id
			WHERE f.follower_id = $1
			ORDER BY f.id DESC
			LIMIT $2 OFFSET $3
		`, account, limit, offset)
}

func (s pg) listAccounts(ctx context.Context, query string, args ...interface{}) ([]*entities.Account, error) {
	var aa []accountDTO

	if err := sqlx.SelectContext(ctx, s.ext, &aa, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return lo.Map(aa, func(a accountDTO, _ int) *entities.Account {
		return toAccount(a)
	}), nil
}

func (s pg) CountFollows(ctx context.Context, account uint64) (uint64, uint64, error) {
	var c struct {
		Followers uint64 `db:"followers"`
		Following uint64 `db:"following"`
	}

	if err := sqlx.GetContext(ctx, s.ext, &c, `
			SELECT
				(SELECT COUNT(*) FROM follow WHERE following_id = $1) AS followers,
				(SELECT COUNT(*) FROM follow WHERE follower_id = $1) AS following
		`, account,
	); err != nil {
		return 0, 0, fmt.Errorf("failed to query: %w", err)
	}

	return c.Followers, c.Following, nil
}

func (s pg) CreatePost(ctx context.Context, p *entities.Post) error {
	if _, err := sqlx.NamedExecContext(ctx, s.ext, `
			INSERT INTO post(id, owner_id, media_url, caption)
			VALUES(:id, :owner_id, :media_url, :caption)
		`, postDTO{
		ID:       p.ID,
		OwnerID:  p.OwnerID,
		MediaURL: p.MediaURL,
		Caption:  p.Caption,
	}); err != nil {
		if isPQError(err, foreignKeyViolation) {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	if len(p.Tags) == 0 {
		return nil
	}

	if _, err := s.ext.ExecContext(ctx, `
			INSERT INTO post_tag(post_id, account_id)
			SELECT $1, unnest($2::BIGINT[])
			ON CONFLICT DO NOTHING
		`, p.ID, pq.Array(toInt64s(p.Tags)),
	); err != nil {
		if isPQError(err, foreignKeyViolation) {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to insert tags: %w", err)
	}

	return nil
}

func (s pg) GetPost(ctx context.Context, id uint64) (*entities.Post, error) {
	var p postDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT id, owner_id, media_url, caption, deleted_at FROM post
			WHERE id = $1
		`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out, err := s.withTags(ctx, []postDTO{p})
	if err != nil {
		return nil, err
	}

	return out[0], nil
}

func (s pg) DeletePost(ctx context.Context, id uint64, timestamp time.Time) error {
	res, err := s.ext.ExecContext(ctx,
		`UPDATE post SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) ListPosts(ctx context.Context, owner uint64, limit, offset uint64) ([]*entities.Post, error) {
	return s.listPosts(ctx, `
			SELECT id, owner_id, media_url, caption, deleted_at FROM post
			WHERE owner_id = $1 AND deleted_at IS NULL
			ORDER BY id DESC
			LIMIT $2 OFFSET $3
		`, owner, limit, offset)
}

func (s pg) ListTaggedPosts(ctx context.Context, account uint64, limit, offset uint64) ([]*entities.Post, error) {
	return s.listPosts(ctx, `
			SELECT p.id, p.owner_id, p.media_url, p.caption, p.deleted_at FROM post p
			INNER JOIN post_tag t ON t.post_id = p.id
			WHERE t.account_id = $1 AND p.deleted_at IS NULL
			ORDER BY p.id DESC
			LIMIT $2 OFFSET $3
		`, account, limit, offset)
}

func (s pg) listPosts(ctx context.Context, query string, args ...interface{}) ([]*entities.Post, error) {
	var pp []postDTO

	if err := sqlx.SelectContext(ctx, s.ext, &pp, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return s.withTags(ctx, pp)
}

func (s pg) withTags(ctx context.Context, pp []postDTO) ([]*entities.Post, error) {
	out := make([]*entities.Post, len(pp))
	if len(pp) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`
			SELECT post_id, account_id FROM post_tag
			WHERE post_id IN (?)
			ORDER BY account_id
		`, lo.Map(pp, func(p postDTO, _ int) uint64 { return p.ID }))
	if err != nil {
		return nil, fmt.Errorf("failed to construct IN clause: %w", err)
	}

	var tags []tagDTO
	if err := sqlx.SelectContext(ctx, s.ext, &tags, s.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}

	byPost := lo.GroupBy(tags, func(t tagDTO) uint64 { return t.PostID })

	for i, v := range pp {
		out[i] = &entities.Post{
			ID:        v.ID,
			OwnerID:   v.OwnerID,
			MediaURL:  v.MediaURL,
			Caption:   v.Caption,
			Tags:      lo.Map(byPost[v.ID], func(t tagDTO, _ int) uint64 { return t.AccountID }),
			CreatedAt: snowflake.TimestampOf(v.ID),
			DeletedAt: utc(v.DeletedAt),
		}
	}

	return out, nil
}

func (s pg) CountPosts(ctx context.Context, owner uint64) (uint64, error) {
	var c uint64

	if err := sqlx.GetContext(ctx, s.ext, &c,
		`SELECT COUNT(*) FROM post WHERE owner_id = $1 AND deleted_at IS NULL`, owner,
	); err != nil {
		return 0, fmt.Errorf("failed to query: %w", err)
	}

	return c, nil
}

func (s pg) CreateLike(ctx context.Context, l *entities.Like) error {
	res, err := s.ext.ExecContext(ctx, `
			INSERT INTO "like"(id, subject_type, subject_id, account_id) VALUES($1, $2, $3, $4)
			ON CONFLICT(subject_type, subject_id, account_id) DO NOTHING
		`, l.ID, string(l.Subject.Type), l.Subject.ID, l.AccountID,
	)
	if err != nil {
		if isPQError(err, foreignKeyViolation) {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrAlreadyExists
	}

	return nil
}

func (s pg) DeleteLike(ctx context.Context, subject entities.Subject, account uint64) (uint64, error) {
	var id uint64

	if err := sqlx.GetContext(ctx, s.ext, &id, `
			DELETE FROM "like" WHERE subject_type = $1 AND subject_id = $2 AND account_id = $3
			RETURNING id
		`, string(subject.Type), subject.ID, account,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}

		return 0, fmt.Errorf("failed to exec: %w", err)
	}

	return id, nil
}

func (s pg) CountLikes(ctx context.Context, t entities.SubjectType, id ...uint64) (map[uint64]uint64, error) {
	return s.count(ctx, `
			SELECT subject_id AS id, COUNT(*) AS count FROM "like"
			WHERE subject_type = ? AND subject_id IN (?)
			GROUP BY subject_id
		`, id, string(t), id)
}

func (s pg) GetLiked(ctx context.Context, account uint64, t entities.SubjectType, id ...uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(id))
	if len(id) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`
			SELECT subject_id FROM "like"
			WHERE account_id = ? AND subject_type = ? AND subject_id IN (?)
		`, account, string(t), lo.Uniq(id))
	if err != nil {
		return nil, fmt.Errorf("failed to construct IN clause: %w", err)
	}

	var liked []uint64
	if err := sqlx.SelectContext(ctx, s.ext, &liked, s.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	for _, v := range id {
		out[v] = false
	}
	for _, v := range liked {
		out[v] = true
	}

	return out, nil
}

func (s pg) CreateComment(ctx context.Context, c *entities.Comment) error {
	if _, err := sqlx.NamedExecContext(ctx, s.ext, `
			INSERT INTO comment(id, post_id, author_id, parent_id, text)
			VALUES(:id, :post_id, :author_id, :parent_id, :text)
		`, commentDTO{
		ID:       c.ID,
		PostID:   c.PostID,
		AuthorID: c.AuthorID,
		ParentID: c.ParentID,
		Text:     c.Text,
	}); err != nil {
		if isPQError(err, foreignKeyViolation) {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetComment(ctx context.Context, id uint64) (*entities.Comment, error) {
	var c commentDTO

	if err := sqlx.GetContext(ctx, s.ext, &c, `
			SELECT id, post_id, author_id, parent_id, text, deleted_at FROM comment
			WHERE id = $1
		`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toComment(c), nil
}

func (s pg) DeleteComment(ctx context.Context, id uint64, timestamp time.Time) error {
	res, err := s.ext.ExecContext(ctx,
		`UPDATE comment SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) ListComments(ctx context.Context, post uint64, limit, offset uint64) ([]*entities.Comment, error) {
	return s.listComments(ctx, `
			SELECT id, post_id, author_id, parent_id, text, deleted_at FROM comment
			WHERE post_id = $1 AND parent_id IS NULL AND deleted_at IS NULL
			ORDER BY id DESC
			LIMIT $2 OFFSET $3
		`, post, limit, offset)
}

func (s pg) ListReplies(ctx context.Context, comment uint64, limit, offset uint64) ([]*entities.Comment, error) {
	return s.listComments(ctx, `
			SELECT id, post_id, author_id, parent_id, text, deleted_at FROM comment
			WHERE parent_id = $1 AND deleted_at IS NULL
			ORDER BY id DESC
			LIMIT $2 OFFSET $3
		`, comment, limit, offset)
}

func (s pg) listComments(ctx context.Context, query string, args ...interface{}) ([]*entities.Comment, error) {
	var cc []commentDTO

	if err := sqlx.SelectContext(ctx, s.ext, &cc, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return lo.Map(cc, func(c commentDTO, _ int) *entities.Comment {
		return toComment(c)
	}), nil
}

func (s pg) CountReplies(ctx context.Context, comment ...uint64) (map[uint64]uint64, error) {
	return s.count(ctx, `
			SELECT parent_id AS id, COUNT(*) AS count FROM comment
			WHERE parent_id IN (?) AND deleted_at IS NULL
			GROUP BY parent_id
		`, comment, comment)
}

func (s pg) CountComments(ctx context.Context, post ...uint64) (map[uint64]uint64, error) {
	return s.count(ctx, `
			SELECT post_id AS id, COUNT(*) AS count FROM comment
			WHERE post_id IN (?) AND deleted_at IS NULL
			GROUP BY post_id
		`, post, post)
}

// count runs IN-query which returns (id, count) rows. Every id gets an entry in result map.
func (s pg) count(ctx context.Context, query string, ids []uint64, args ...interface{}) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	for _, v := range ids {
		out[v] = 0
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to construct IN clause: %w", err)
	}

	var cc []countDTO
	if err := sqlx.SelectContext(ctx, s.ext, &cc, s.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	for _, v := range cc {
		out[v.ID] = v.Count
	}

	return out, nil
}

func (s pg) CreateNotification(ctx context.Context, n *entities.Notification) error {
	if _, err := sqlx.NamedExecContext(ctx, s.ext, `
			INSERT INTO notification(id, recipient_id, actor_id, category, source_id, description)
			VALUES(:id, :recipient_id, :actor_id, :category, :source_id, :description)
		`, notificationDTO{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		Category:    string(n.Category),
		SourceID:    n.SourceID,
		Description: n.Description,
	}); err != nil {
		if isPQError(err, foreignKeyViolation) {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) DeleteNotification(ctx context.Context, recipient uint64, category entities.NotificationCategory, source uint64) (bool, error) {
	res, err := s.ext.ExecContext(ctx, `
			DELETE FROM notification WHERE recipient_id = $1 AND category = $2 AND source_id = $3
		`, recipient, string(category), source,
	)
	if err != nil {
		return false, fmt.Errorf("failed to exec: %w", err)
	}

	c, _ := res.RowsAffected()

	return c > 0, nil
}

func (s pg) ListNotifications(ctx context.Context, recipient uint64, limit, offset uint64) ([]*entities.Notification, error) {
	var nn []notificationDTO

	if err := sqlx.SelectContext(ctx, s.ext, &nn, `
			SELECT id, recipient_id, actor_id, category, source_id, description FROM notification
			WHERE recipient_id = $1
			ORDER BY id DESC
			LIMIT $2 OFFSET $3
		`, recipient, limit, offset,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return lo.Map(nn, func(n notificationDTO, _ int) *entities.Notification {
		return &entities.Notification{
			ID:          n.ID,
			RecipientID: n.RecipientID,
			ActorID:     n.ActorID,
			Category:    entities.NotificationCategory(n.Category),
			SourceID:    n.SourceID,
			Description: n.Description,
			CreatedAt:   snowflake.TimestampOf(n.ID),
		}
	}), nil
}

func toAccount(a accountDTO) *entities.Account {
	return &entities.Account{
		ID:          a.ID,
		Handle:      a.Handle,
		DisplayName: a.DisplayName,
		Bio:         a.Bio,
		AvatarURL:   a.AvatarURL,
		IsPrivate:   a.IsPrivate,
		CreatedAt:   snowflake.TimestampOf(a.ID),
	}
}

func toComment(c commentDTO) *entities.Comment {
	return &entities.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		ParentID:  c.ParentID,
		Text:      c.Text,
		CreatedAt: snowflake.TimestampOf(c.ID),
		DeletedAt: utc(c.DeletedAt),
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := t.UTC()
	return &v
}

func toInt64s(v []uint64) []int64 {
	return lo.Map(lo.Uniq(v), func(v uint64, _ int) int64 { return int64(v) })
}

func isPQError(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
