package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi"
	"golang.org/x/crypto/bcrypt"

	"github.com/Decentr-net/agora/internal/api"
	"github.com/Decentr-net/agora/internal/entities"
	"github.com/Decentr-net/agora/internal/service"
)

const (
	postSubject    = entities.PostSubject
	commentSubject = entities.CommentSubject
)

var errInvalidRequest = errors.New("invalid request")

func (s server) createAccount(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /accounts Accounts CreateAccount
	//
	// Creates an account. Password is kept as bcrypt hash.
	//
	// ---
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreateAccountRequest"
	// responses:
	//   '201':
	//     schema:
	//       "$ref": "#/definitions/Account"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '409':
	//     description: handle is taken
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req CreateAccountRequest
	if err := s.decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.WriteInternalErrorf(r.Context(), w, "failed to hash password: %s", err.Error())
		return
	}

	a, err := s.s.CreateAccount(r.Context(), &service.CreateAccountParams{
		Handle:         req.Handle,
		CredentialHash: string(hash),
		DisplayName:    req.DisplayName,
		Bio:            req.Bio,
		AvatarURL:      req.AvatarURL,
		IsPrivate:      req.IsPrivate,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to create account")
		return
	}

	api.WriteOK(w, http.StatusCreated, toAPIAccount(a))
}

func (s server) updateProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /profile Accounts UpdateProfile
	//
	// Updates caller's profile. Omitted fields are kept as is.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/UpdateProfileRequest"
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/Account"

	var req UpdateProfileRequest
	if err := s.decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.s.UpdateProfile(r.Context(), caller(r.Context()), &service.UpdateProfileParams{
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to update profile")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPIAccount(a))
}

func (s server) getProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/{handle} Accounts GetProfile
	//
	// Returns profile with counters and a preview of recent posts. Private profiles are visible to followers only.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: handle
	//   in: path
	//   required: true
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/Profile"
	//   '403':
	//     description: account is private
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: account not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	p, err := s.s.GetProfile(r.Context(), caller(r.Context()), chi.URLParam(r, "handle"))
	if err != nil {
		writeServiceError(w, r, err, "failed to get profile")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPIProfile(p))
}

func (s server) follow(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /profiles/{handle}/follow Graph Follow
	//
	// Follows the account.
	//
	// ---
	// security:
	// - bearer: []
	// responses:
	//   '201':
	//     schema:
	//       "$ref": "#/definitions/FollowEdge"
	//   '409':
	//     description: already following or following self
	//     schema:
	//       "$ref": "#/definitions/Error"

	target, ok := s.accountID(w, r)
	if !ok {
		return
	}

	e, err := s.s.Follow(r.Context(), caller(r.Context()), target)
	if err != nil {
		writeServiceError(w, r, err, "failed to follow")
		return
	}

	api.WriteOK(w, http.StatusCreated, toAPIFollowEdge(e))
}

func (s server) unfollow(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /profiles/{handle}/follow Graph Unfollow
	//
	// Unfollows the account and retracts follow notification.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: handle
	//   in: path
	//   required: true
	// responses:
	//   '204':
	//     description: done
	//   '404':
	//     description: account not found
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '409':
	//     description: not following
	//     schema:
	//       "$ref": "#/definitions/Error"

	target, ok := s.accountID(w, r)
	if !ok {
		return
	}

	if err := s.s.Unfollow(r.Context(), caller(r.Context()), target); err != nil {
		writeServiceError(w, r, err, "failed to unfollow")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) listFollowers(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/{handle}/followers Graph ListFollowers
	//
	// Returns account's followers, most recent first.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: handle
	//   in: path
	//   required: true
	// - name: take
	//   in: query
	//   required: false
	//   default: 20
	//   minimum: 1
	//   maximum: 100
	// - name: page
	//   in: query
	//   required: false
	//   default: 1
	//   minimum: 1
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Account"
	//   '403':
	//     description: account is private
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: account not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	account, p, ok := s.accountPage(w, r)
	if !ok {
		return
	}

	aa, err := s.s.ListFollowers(r.Context(), caller(r.Context()), account, p)
	if err != nil {
		writeServiceError(w, r, err, "failed to list followers")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPIAccounts(aa))
}

func (s server) listFollowing(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/{handle}/following Graph ListFollowing
	//
	// Returns accounts followed by the account, most recent first.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: handle
	//   in: path
	//   required: true
	// - name: take
	//   in: query
	//   required: false
	//   default: 20
	//   minimum: 1
	//   maximum: 100
	// - name: page
	//   in: query
	//   required: false
	//   default: 1
	//   minimum: 1
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Account"
	//   '403':
	//     description: account is private
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: account not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	account, p, ok := s.accountPage(w, r)
	if !ok {
		return
	}

	aa, err := s.s.ListFollowing(r.Context(), caller(r.Context()), account, p)
	if err != nil {
		writeServiceError(w, r, err, "failed to list following")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPIAccounts(aa))
}

func (s server) listPosts(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/{handle}/posts Posts ListPosts
	//
	// Returns account's posts, newest first.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: take
	//   in: query
	//   required: false
	//   default: 20
	//   minimum: 1
	//   maximum: 100
	// - name: page
	//   in: query
	//   required: false
	//   default: 1
	//   minimum: 1
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Post"
	//   '403':
	//     description: account is private
	//     schema:
	//       "$ref": "#/definitions/Error"

	account, p, ok := s.accountPage(w, r)
	if !ok {
		return
	}

	pp, err := s.s.ListPosts(r.Context(), caller(r.Context()), account, p)
	if err != nil {
		writeServiceError(w, r, err, "failed to list posts")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPIPosts(pp))
}

func (s server) listTaggedPosts(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/{handle}/tagged Posts ListTaggedPosts
	//
	// Returns posts where the account is tagged, newest first. Posts of accounts hidden from caller are skipped.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: handle
	//   in: path
	//   required: true
	// - name: take
	//   in: query
	//   required: false
	//   default: 20
	//   minimum: 1
	//   maximum: 100
	// - name: page
	//   in: query
	//   required: false
	//   default: 1
	//   minimum: 1
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Post"
	//   '403':
	//     description: account is private
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: account not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	account, p, ok := s.accountPage(w, r)
	if !ok {
		return
	}

	pp, err := s.s.ListTaggedPosts(r.Context(), caller(r.Context()), account, p)
	if err != nil {
		writeServiceError(w, r, err, "failed to list tagged posts")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPIPosts(pp))
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts Posts CreatePost
	//
	// Creates a post owned by caller.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreatePostRequest"
	// responses:
	//   '201':
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req CreatePostRequest
	if err := s.decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.s.CreatePost(r.Context(), caller(r.Context()), &service.CreatePostParams{
		MediaURL: req.MediaURL,
		Caption:  req.Caption,
		Tags:     req.Tags,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to create post")
		return
	}

	api.WriteOK(w, http.StatusCreated, toAPIPost(&service.Post{Post: *p}))
}

func (s server) getPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/{id} Posts GetPost
	//
	// Returns the post with likes and comments counters.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '403':
	//     description: account is private
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := s.s.GetPost(r.Context(), caller(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to get post")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPIPost(p))
}

func (s server) deletePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /posts/{id} Posts DeletePost
	//
	// Deletes caller's post.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	// responses:
	//   '204':
	//     description: done
	//   '403':
	//     description: caller is not the owner
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.s.DeletePost(r.Context(), caller(r.Context()), id); err != nil {
		writeServiceError(w, r, err, "failed to delete post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) like(t entities.SubjectType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// swagger:operation PUT /posts/{id}/like Likes LikePost
		//
		// Likes the post. Repeated like changes nothing.
		//
		// ---
		// security:
		// - bearer: []
		// parameters:
		// - name: id
		//   in: path
		//   required: true
		// responses:
		//   '204':
		//     description: done
		//   '403':
		//     description: account is private
		//     schema:
		//       "$ref": "#/definitions/Error"
		//   '404':
		//     description: post not found
		//     schema:
		//       "$ref": "#/definitions/Error"

		// swagger:operation PUT /comments/{id}/like Likes LikeComment
		//
		// Likes the comment. Repeated like changes nothing.
		//
		// ---
		// security:
		// - bearer: []
		// parameters:
		// - name: id
		//   in: path
		//   required: true
		// responses:
		//   '204':
		//     description: done
		//   '403':
		//     description: account is private
		//     schema:
		//       "$ref": "#/definitions/Error"
		//   '404':
		//     description: comment not found
		//     schema:
		//       "$ref": "#/definitions/Error"

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := s.s.Like(r.Context(), caller(r.Context()), entities.Subject{Type: t, ID: id}); err != nil {
			writeServiceError(w, r, err, "failed to like")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s server) unlike(t entities.SubjectType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// swagger:operation DELETE /posts/{id}/like Likes UnlikePost
		//
		// Removes caller's like from the post. Missing like is not an error.
		//
		// ---
		// security:
		// - bearer: []
		// parameters:
		// - name: id
		//   in: path
		//   required: true
		// responses:
		//   '204':
		//     description: done

		// swagger:operation DELETE /comments/{id}/like Likes UnlikeComment
		//
		// Removes caller's like from the comment. Missing like is not an error.
		//
		// ---
		// security:
		// - bearer: []
		// parameters:
		// - name: id
		//   in: path
		//   required: true
		// responses:
		//   '204':
		//     description: done

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := s.s.Unlike(r.Context(), caller(r.Context()), entities.Subject{Type: t, ID: id}); err != nil {
			writeServiceError(w, r, err, "failed to unlike")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s server) listComments(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/{id}/comments Comments ListComments
	//
	// Returns top-level comments of the post, newest first.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	// - name: take
	//   in: query
	//   required: false
	//   default: 20
	//   minimum: 1
	//   maximum: 100
	// - name: page
	//   in: query
	//   required: false
	//   default: 1
	//   minimum: 1
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Comment"
	//   '403':
	//     description: account is private
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := extractPage(r.URL.Query())
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cc, err := s.s.ListComments(r.Context(), caller(r.Context()), id, p)
	if err != nil {
		writeServiceError(w, r, err, "failed to list comments")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPIComments(cc))
}

func (s server) createComment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/comments Comments CreateComment
	//
	// Creates a comment. When parent_id is set the comment is a reply to top-level comment of the same post.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreateCommentRequest"
	// responses:
	//   '201':
	//     schema:
	//       "$ref": "#/definitions/Comment"
	//   '400':
	//     description: invalid text or parent
	//     schema:
	//       "$ref": "#/definitions/Error"

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := s.decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := s.s.CreateComment(r.Context(), caller(r.Context()), id, req.Text, req.ParentID)
	if err != nil {
		writeServiceError(w, r, err, "failed to create comment")
		return
	}

	api.WriteOK(w, http.StatusCreated, toAPIComment(&service.Comment{Comment: *c}))
}

func (s server) listReplies(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /comments/{id}/replies Comments ListReplies
	//
	// Returns replies to the comment, newest first.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	// - name: take
	//   in: query
	//   required: false
	//   default: 20
	//   minimum: 1
	//   maximum: 100
	// - name: page
	//   in: query
	//   required: false
	//   default: 1
	//   minimum: 1
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Comment"
	//   '403':
	//     description: account is private
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: comment not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := extractPage(r.URL.Query())
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cc, err := s.s.ListReplies(r.Context(), caller(r.Context()), id, p)
	if err != nil {
		writeServiceError(w, r, err, "failed to list replies")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPIComments(cc))
}

func (s server) deleteComment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /comments/{id} Comments DeleteComment
	//
	// Deletes caller's comment and retracts its notification. Replies are kept.
	//
	// ---
	// security:
	// - bearer: []
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	// responses:
	//   '204':
	//     description: done
	//   '403':
	//     description: caller is not the author
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: comment not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.s.DeleteComment(r.Context(), caller(r.Context()), id); err != nil {
		writeServiceError(w, r, err, "failed to delete comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) listNotifications(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /notifications Notifications ListNotifications
	//
	// Returns caller's notifications, newest first.
	//
	// ---
	// security:
	// - bearer: []
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Notification"

	p, err := extractPage(r.URL.Query())
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	nn, err := s.s.ListNotifications(r.Context(), caller(r.Context()), p)
	if err != nil {
		writeServiceError(w, r, err, "failed to list notifications")
		return
	}

	api.WriteOK(w, http.StatusOK, toAPINotifications(nn))
}

// accountID resolves {handle} path parameter into account id. It writes error response when ok is false.
func (s server) accountID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	a, err := s.s.GetAccountByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		writeServiceError(w, r, err, "failed to get account")
		return 0, false
	}

	return a.ID, true
}

func (s server) accountPage(w http.ResponseWriter, r *http.Request) (uint64, service.Page, bool) {
	p, err := extractPage(r.URL.Query())
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return 0, service.Page{}, false
	}

	id, ok := s.accountID(w, r)
	return id, p, ok
}

func (s server) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid body", errInvalidRequest)
	}

	if err := s.v.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", errInvalidRequest, err.Error())
	}

	return nil
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}

	return id, true
}

func extractPage(q url.Values) (service.Page, error) {
	p := service.Page{Take: defaultTake, Page: 1}

	if s := q.Get("take"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return service.Page{}, fmt.Errorf("%w: invalid take", errInvalidRequest)
		}
		p.Take = v
	}

	if s := q.Get("page"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return service.Page{}, fmt.Errorf("%w: invalid page", errInvalidRequest)
		}
		p.Page = v
	}

	if err := p.Validate(); err != nil {
		return service.Page{}, err
	}

	return p, nil
}

// writeServiceError translates service's error kinds into response statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		api.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		api.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrPrivacyDenied):
		api.WriteError(w, http.StatusForbidden, err.Error())
	default:
		api.WriteInternalErrorf(r.Context(), w, "%s: %s", msg, err.Error())
	}
}
