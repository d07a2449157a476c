package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Decentr-net/agora/internal/api"
)

type callerKey struct{}

// authMiddleware verifies bearer token and puts caller's account id (token's subject) into context.
func authMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := verifyToken(secret, r.Header.Get("Authorization"))
			if err != nil {
				api.GetLogger(r.Context()).WithError(err).Debug("unauthorized request")
				api.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, id)))
		})
	}
}

func verifyToken(secret []byte, header string) (uint64, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, fmt.Errorf("invalid authorization header")
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(parts[1], &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})); err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", claims.Subject)
	}

	return id, nil
}

// caller returns authenticated account id.
func caller(ctx context.Context) uint64 {
	id, _ := ctx.Value(callerKey{}).(uint64)
	return id
}
