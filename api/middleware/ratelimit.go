package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/irsalhamdi/pet-marketplace/api/web"
	"github.com/irsalhamdi/pet-marketplace/api/weberr"
	"github.com/irsalhamdi/pet-marketplace/core/claims"
	"github.com/irsalhamdi/pet-marketplace/rate"
)

// RateLimit rejects clients that exceed lim. Signed-in users are limited by
// user id, anonymous callers by remote address.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			client := clientKey(ctx, r)
			if !lim.Check(client) {
				return weberr.TooManyRequests(
					fmt.Errorf("client[%s] exceeded the rate limit", client),
					weberr.WithFields(map[string]any{"client": client}),
				)
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func clientKey(ctx context.Context, r *http.Request) string {
	if c, err := claims.Get(ctx); err == nil {
		return "user:" + strconv.Itoa(c.UserID)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
