// Package auth resolves the caller from the session shared with the account
// portal. Signing in and out happens there.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/pet-marketplace/api/web"
	"github.com/irsalhamdi/pet-marketplace/api/weberr"
	"github.com/irsalhamdi/pet-marketplace/core/claims"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// LoadAndSave loads the session of the request into its context and saves
// it back before the response is written.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			})

			sm.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}

// Authenticate puts the claims of the signed-in user into the context and
// rejects anonymous requests.
func Authenticate(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := sm.GetInt(ctx, UserIDKey)
			if userID <= 0 {
				return weberr.NotAuthorized(errors.New("no user in session"))
			}

			ctx = claims.Set(ctx, claims.Claims{
				UserID: userID,
				Role:   sm.GetString(ctx, RoleKey),
			})
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Admin authenticates the caller and only lets administrators through.
func Admin(sm *scs.SessionManager) web.Middleware {
	authn := Authenticate(sm)

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.Forbidden(errors.New("admin role required"))
			}
			return handler(ctx, w, r)
		}
		return authn(h)
	}
	return m
}
