package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/pet-marketplace/api"
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

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "PETMARKET"
	var cfg config.Config
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if out, err := conf.String(&cfg); err == nil {
		logger.Infof("config:\n%s", out)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, closeBackend, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open the %s store: %w", cfg.Store.Backend, err)
	}
	defer closeBackend()
	logger.WithField("backend", cfg.Store.Backend).Info("store ready")

	sessionManager := scs.New()
	sessionManager.Store = auth.NewSessionStore(backend)
	sessionManager.Lifetime = cfg.Session.Lifetime

	carts := cart.NewRepository(store.NewJSON[[]cart.Cart](backend, logger), cfg.Store.CartKey)
	orders := order.NewStore(backend)

	limiter := rate.NewLimiter(cfg.Rate.Burst, cfg.Rate.Expiry, rate.Every(cfg.Rate.Interval))
	go limiter.Run(ctx, time.Minute)

	pp, err := paypal.NewClient(
		cfg.Paypal.ClientID,
		cfg.Paypal.Secret,
		cfg.Paypal.URL,
	)
	if err != nil {
		return fmt.Errorf("failed to build the paypal client: %w", err)
	}

	if _, err = pp.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("failed to get the first paypal access token: %w", err)
	}

	strp := &stripecl.API{}
	strp.Init(cfg.Stripe.APISecret, nil)

	mux := api.APIMux(api.APIConfig{
		CorsOrigin: cfg.Cors.Origin,
		Log:        logger,
		Backend:    backend,
		Carts:      carts,
		Orders:     orders,
		Session:    sessionManager,
		Limiter:    limiter,
		Paypal:     pp,
		Stripe:     strp,
		StripeCfg:  cfg.Stripe,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}
