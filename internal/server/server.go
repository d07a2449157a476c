// Package server Agora
//
// The Agora is a service which keeps social graph (follows) and engagements (likes, comments, notifications) consistent.
//
//     Schemes: https
//     BasePath: /v1
//     Version: 0.1.0
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
//
// swagger:meta
package server

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/Decentr-net/agora/internal/api"
	"github.com/Decentr-net/agora/internal/service"
)

const maxBodySize = 8 * 1024

type server struct {
	s service.Service
	v *validator.Validate
}

// SetupRouter setups handlers to chi router.
// Every /v1 route requires bearer token signed with secret except account creation.
func SetupRouter(s service.Service, r chi.Router, timeout time.Duration, secret []byte) {
	r.Use(
		api.LoggerMiddleware,
		middleware.StripSlashes,
		cors.AllowAll().Handler,
		api.RequestIDMiddleware,
		api.RecovererMiddleware,
		api.TimeoutMiddleware(timeout),
		api.BodyLimiterMiddleware(maxBodySize),
	)

	srv := server{
		s: s,
		v: validator.New(),
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/accounts", srv.createAccount)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(secret))

			r.Put("/profile", srv.updateProfile)

			r.Get("/profiles/{handle}", srv.getProfile)
			r.Post("/profiles/{handle}/follow", srv.follow)
			r.Delete("/profiles/{handle}/follow", srv.unfollow)
			r.Get("/profiles/{handle}/followers", srv.listFollowers)
			r.Get("/profiles/{handle}/following", srv.listFollowing)
			r.Get("/profiles/{handle}/posts", srv.listPosts)
			r.Get("/profiles/{handle}/tagged", srv.listTaggedPosts)

			r.Post("/posts", srv.createPost)
			r.Get("/posts/{id}", srv.getPost)
			r.Delete("/posts/{id}", srv.deletePost)
			r.Put("/posts/{id}/like", srv.like(postSubject))
			r.Delete("/posts/{id}/like", srv.unlike(postSubject))
			r.Get("/posts/{id}/comments", srv.listComments)
			r.Post("/posts/{id}/comments", srv.createComment)

			r.Get("/comments/{id}/replies", srv.listReplies)
			r.Delete("/comments/{id}", srv.deleteComment)
			r.Put("/comments/{id}/like", srv.like(commentSubject))
			r.Delete("/comments/{id}/like", srv.unlike(commentSubject))

			r.Get("/notifications", srv.listNotifications)
		})
	})
}
