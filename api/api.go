package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/pet-marketplace/api/middleware"
	"github.com/irsalhamdi/pet-marketplace/api/web"
	"github.com/irsalhamdi/pet-marketplace/api/weberr"
	"github.com/irsalhamdi/pet-marketplace/config"
	"github.com/irsalhamdi/pet-marketplace/core/auth"
	"github.com/irsalhamdi/pet-marketplace/core/cart"
	"github.com/irsalhamdi/pet-marketplace/core/order"
	"github.com/irsalhamdi/pet-marketplace/rate"
	"github.com/irsalhamdi/pet-marketplace/store"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	Backend    store.Backend
	Carts      *cart.Repository
	Orders     *order.Store
	Session    *scs.SessionManager
	Limiter    *rate.Limiter
	Paypal     *paypal.Client
	Stripe     *stripecl.API
	StripeCfg  config.Stripe
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)

	// limit runs after authen so signed-in users get their own bucket.
	var limit web.Middleware
	if cfg.Limiter != nil {
		limit = middleware.RateLimit(cfg.Limiter)
	}

	a.Handle(http.MethodGet, "/health", handleHealth(cfg.Backend))

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts), authen, limit)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.Carts), authen, limit)
	a.Handle(http.MethodPost, "/cart/items", cart.HandleCreateItem(cfg.Carts), authen, limit)
	a.Handle(http.MethodGet, "/cart/items/{id}", cart.HandleShowItem(cfg.Carts), authen, limit)
	a.Handle(http.MethodPut, "/cart/items/{id}", cart.HandleUpdateItem(cfg.Carts), authen, limit)
	a.Handle(http.MethodPost, "/cart/items/{id}/increment", cart.HandleIncrementItem(cfg.Carts), authen, limit)
	a.Handle(http.MethodDelete, "/cart/items/{id}", cart.HandleDeleteItem(cfg.Carts), authen, limit)

	a.Handle(http.MethodGet, "/users/{user_id}/cart", cart.HandleShowUser(cfg.Carts), admin)

	a.Handle(http.MethodPost, "/orders/paypal", order.HandlePaypalCheckout(cfg.Carts, cfg.Orders, cfg.Paypal), authen, limit)
	a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.Carts, cfg.Orders, cfg.Paypal), authen, limit)
	a.Handle(http.MethodPost, "/orders/stripe", order.HandleStripeCheckout(cfg.Carts, cfg.Orders, cfg.Stripe, cfg.StripeCfg), authen, limit)
	a.Handle(http.MethodPost, "/orders/stripe/capture", order.HandleStripeCapture(cfg.Carts, cfg.Orders, cfg.StripeCfg))

	return a.Router
}

func handleHealth(backend store.Backend) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := backend.Ping(ctx); err != nil {
			return weberr.Unavailable(fmt.Errorf("store not ready: %w", err))
		}

		status := struct {
			Status string `json:"status"`
		}{Status: "ok"}
		return web.Respond(ctx, w, status, http.StatusOK)
	}
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
